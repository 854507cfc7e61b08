// Package civic defines the record types shared by the scraping pipelines.
package civic

import "time"

// DecisionType classifies a decision extracted from meeting minutes.
type DecisionType string

// Decision types recognized by the minutes extractor.
const (
	DecisionMotion       DecisionType = "motion"
	DecisionResolution   DecisionType = "resolution"
	DecisionOrdinance    DecisionType = "ordinance"
	DecisionProclamation DecisionType = "proclamation"
	DecisionVote         DecisionType = "vote"
	DecisionGeneric      DecisionType = "decision"
)

// Outcome is the result of a decision as stated in the minutes.
type Outcome string

// Outcome values persisted on decisions.
const (
	OutcomeApproved Outcome = "approved"
	OutcomeDenied   Outcome = "denied"
	OutcomeTabled   Outcome = "tabled"
	OutcomeReferred Outcome = "referred"
	OutcomeUnknown  Outcome = "unknown"
)

// Role describes how a member participated in a decision.
type Role string

// Roles recorded on decision involvement rows.
const (
	RoleMover    Role = "mover"
	RoleSeconder Role = "seconder"
	RoleVoter    Role = "voter"
)

// VoteValue is a normalized recorded vote.
type VoteValue string

// Vote values stored in the votes table.
const (
	VoteYea     VoteValue = "YEA"
	VoteNay     VoteValue = "NAY"
	VoteAbstain VoteValue = "ABSTAIN"
	VoteAbsent  VoteValue = "ABSENT"
)

// Member is a council member row.
type Member struct {
	ID         string
	Name       string
	Seat       string
	Bio        string
	PhotoURL   string
	Email      string
	Phone      string
	LinkedIn   string
	Twitter    string
	Committees []string
}

// MemberRef is the minimal projection the name matcher works over.
type MemberRef struct {
	ID   string
	Name string
}

// Meeting is a council meeting row. Date carries only the calendar day.
type Meeting struct {
	ID         string
	Date       time.Time
	Title      string
	Type       string
	MinutesURL string
	Folder     string
}

// AgendaItem is a single item voted on within a meeting.
type AgendaItem struct {
	ID        string
	MeetingID string
	Title     string
	Category  string
	Tags      []string
}

// Decision is a motion, resolution, ordinance, or vote extracted from
// minutes text, together with the members involved in it.
type Decision struct {
	ID          string
	MeetingID   string
	Title       string
	Description string
	Type        DecisionType
	Outcome     Outcome
	SourceText  string
	Involvement []Involvement
}

// Involvement ties a member to a decision with a role and, for voters,
// a vote value.
type Involvement struct {
	MemberID   string
	MemberName string
	Role       Role
	Vote       VoteValue
}

// Vote is a recorded vote on an agenda item, attributed to a source.
type Vote struct {
	AgendaItemID string
	MemberID     string
	Value        VoteValue
	SourceURL    string
	SourceName   string
}
