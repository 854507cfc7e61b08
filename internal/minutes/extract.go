package minutes

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/civic/match"
	"github.com/civiclens/council-scraper/internal/metrics"
)

// Keywords that mark a section as containing a decision.
var decisionIndicators = []string{
	"MOTION", "RESOLUTION", "ORDINANCE", "VOTE", "DECISION",
	"APPROVED", "DENIED", "PASSED", "FAILED", "TABLED",
	"SECOND", "MOVE", "MOVED",
}

// Headers that show up as standalone sections in the minutes.
var headerIndicators = map[string]bool{
	"MINUTES":     true,
	"CALL":        true,
	"ORDER":       true,
	"ROLL":        true,
	"PUBLIC":      true,
	"ADJOURNMENT": true,
}

var (
	moverPattern    = regexp.MustCompile(`(?:MOTION|Motion|motion)\s+(?i:by|from)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	seconderPattern = regexp.MustCompile(`(?:SECOND|Second|second)\s+(?i:by|from)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	voterPattern    = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s*[-:]\s*(YEA|NAY|ABSTAIN|ABSENT)`)
)

// Extractor turns minutes text into decisions with member involvement.
type Extractor struct {
	matcher *match.Matcher
	logger  *zap.Logger
}

// NewExtractor builds an extractor resolving names against the matcher.
func NewExtractor(matcher *match.Matcher, logger *zap.Logger) *Extractor {
	return &Extractor{
		matcher: matcher,
		logger:  logger.Named("extract"),
	}
}

// Extract splits the minutes text into sections and returns the
// decisions found in them.
func (e *Extractor) Extract(text string) []civic.Decision {
	var decisions []civic.Decision
	for _, section := range splitSections(text) {
		decision, ok := e.identifyDecision(section)
		if !ok {
			continue
		}
		decisions = append(decisions, decision)
	}
	metrics.DecisionsExtracted.Add(float64(len(decisions)))
	return decisions
}

// splitSections breaks the text on blank lines.
func splitSections(text string) []string {
	raw := strings.Split(text, "\n\n")
	sections := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sections = append(sections, s)
		}
	}
	return sections
}

// identifyDecision decides whether the section records a decision and,
// if so, extracts it.
func (e *Extractor) identifyDecision(section string) (civic.Decision, bool) {
	if len(section) < 50 {
		return civic.Decision{}, false
	}

	upper := strings.ToUpper(section)
	if isHeaderOnly(upper) {
		return civic.Decision{}, false
	}

	if !containsAny(upper, decisionIndicators) {
		return civic.Decision{}, false
	}

	// Keyword hits inside short sections are section titles, not the
	// recorded decision itself.
	if len(section) < 100 {
		return civic.Decision{}, false
	}

	return civic.Decision{
		Title:       firstSentence(section),
		Description: truncate(section, 500),
		Type:        decisionType(upper),
		Outcome:     decisionOutcome(upper),
		SourceText:  section,
		Involvement: e.extractInvolvement(section),
	}, true
}

// isHeaderOnly reports whether the section is just a running header
// like "ROLL CALL" or "ADJOURNMENT".
func isHeaderOnly(upper string) bool {
	words := strings.Fields(upper)
	if len(words) >= 10 {
		return false
	}
	for _, word := range words {
		if len(word) <= 3 {
			continue
		}
		if !headerIndicators[strings.Trim(word, ".,:;")] {
			return false
		}
	}
	return true
}

func containsAny(upper string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// decisionType picks the most specific type whose keyword appears.
func decisionType(upper string) civic.DecisionType {
	switch {
	case strings.Contains(upper, "MOTION"):
		return civic.DecisionMotion
	case strings.Contains(upper, "RESOLUTION"):
		return civic.DecisionResolution
	case strings.Contains(upper, "ORDINANCE"):
		return civic.DecisionOrdinance
	case strings.Contains(upper, "PROCLAMATION"):
		return civic.DecisionProclamation
	case strings.Contains(upper, "VOTE"):
		return civic.DecisionVote
	default:
		return civic.DecisionGeneric
	}
}

func decisionOutcome(upper string) civic.Outcome {
	switch {
	case containsAny(upper, []string{"APPROVED", "PASSED", "ADOPTED", "ACCEPTED"}):
		return civic.OutcomeApproved
	case containsAny(upper, []string{"DENIED", "REJECTED", "FAILED"}):
		return civic.OutcomeDenied
	case containsAny(upper, []string{"TABLED", "POSTPONED", "DEFERRED"}):
		return civic.OutcomeTabled
	case containsAny(upper, []string{"REFERRED", "SENT TO COMMITTEE"}):
		return civic.OutcomeReferred
	default:
		return civic.OutcomeUnknown
	}
}

// extractInvolvement pulls movers, seconders, and recorded votes out of
// the section. Names that do not resolve to a stored member are
// dropped.
func (e *Extractor) extractInvolvement(section string) []civic.Involvement {
	var involvement []civic.Involvement

	for _, m := range moverPattern.FindAllStringSubmatch(section, -1) {
		if inv, ok := e.resolve(m[1], civic.RoleMover, ""); ok {
			involvement = append(involvement, inv)
		}
	}
	for _, m := range seconderPattern.FindAllStringSubmatch(section, -1) {
		if inv, ok := e.resolve(m[1], civic.RoleSeconder, ""); ok {
			involvement = append(involvement, inv)
		}
	}
	for _, m := range voterPattern.FindAllStringSubmatch(section, -1) {
		if inv, ok := e.resolve(m[1], civic.RoleVoter, civic.VoteValue(strings.ToUpper(m[2]))); ok {
			involvement = append(involvement, inv)
		}
	}

	return involvement
}

func (e *Extractor) resolve(name string, role civic.Role, vote civic.VoteValue) (civic.Involvement, bool) {
	ref, ok := e.matcher.Find(name)
	if !ok {
		metrics.NamesUnmatched.Inc()
		e.logger.Warn("unmatched name in minutes",
			zap.String("name", name),
			zap.String("role", string(role)),
		)
		return civic.Involvement{}, false
	}
	metrics.NamesMatched.Inc()
	return civic.Involvement{
		MemberID:   ref.ID,
		MemberName: ref.Name,
		Role:       role,
		Vote:       vote,
	}, true
}

func firstSentence(text string) string {
	if idx := strings.Index(text, "."); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(truncate(text, 100))
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
