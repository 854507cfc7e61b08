package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	blobmemory "github.com/civiclens/council-scraper/internal/blob/memory"
	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/minutes"
	pubmemory "github.com/civiclens/council-scraper/internal/publisher/memory"
	"github.com/civiclens/council-scraper/internal/votetracker"
)

type fakeMemberStore struct {
	refs     []civic.MemberRef
	upserted []civic.Member
	failFor  map[string]bool
}

func (f *fakeMemberStore) UpsertMember(_ context.Context, member civic.Member) (string, error) {
	if f.failFor[member.Name] {
		return "", fmt.Errorf("forced failure for %s", member.Name)
	}
	f.upserted = append(f.upserted, member)
	return fmt.Sprintf("member-%d", len(f.upserted)), nil
}

func (f *fakeMemberStore) ListMembers(context.Context) ([]civic.MemberRef, error) {
	return f.refs, nil
}

type fakeCouncilStore struct {
	meetings    []civic.Meeting
	decisions   map[string][]civic.Decision
	agendaItems []civic.AgendaItem
	votes       []civic.Vote
}

func newFakeCouncilStore() *fakeCouncilStore {
	return &fakeCouncilStore{decisions: map[string][]civic.Decision{}}
}

func (f *fakeCouncilStore) UpsertMeeting(_ context.Context, meeting civic.Meeting) (string, error) {
	f.meetings = append(f.meetings, meeting)
	return fmt.Sprintf("mtg-%d", len(f.meetings)), nil
}

func (f *fakeCouncilStore) ReplaceDecisions(_ context.Context, meetingID string, decisions []civic.Decision) error {
	f.decisions[meetingID] = decisions
	return nil
}

func (f *fakeCouncilStore) UpsertAgendaItem(_ context.Context, item civic.AgendaItem) (string, error) {
	f.agendaItems = append(f.agendaItems, item)
	return fmt.Sprintf("item-%d", len(f.agendaItems)), nil
}

func (f *fakeCouncilStore) UpsertVote(_ context.Context, vote civic.Vote) error {
	f.votes = append(f.votes, vote)
	return nil
}

type fakeRoster struct {
	members []civic.Member
	err     error
}

func (f *fakeRoster) Scrape(context.Context) ([]civic.Member, error) {
	return f.members, f.err
}

func TestMembersPipelineRun(t *testing.T) {
	t.Parallel()

	roster := &fakeRoster{members: []civic.Member{
		{Name: "Aaron Brockett", Seat: "Mayor"},
		{Name: "Nicole Speer"},
		{Name: "Broken Row"},
	}}
	store := &fakeMemberStore{failFor: map[string]bool{"Broken Row": true}}
	pub := pubmemory.New()

	pipeline := NewMembersPipeline(roster, store, pub, zap.NewNop())
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, summary.Records)
	require.Equal(t, 2, summary.Upserts)
	require.Equal(t, 1, summary.Skipped)
	require.Len(t, store.upserted, 2)

	notices := pub.Notices()
	require.Len(t, notices, 1)
	require.Equal(t, "members", notices[0].Source)
	require.Equal(t, summary.RunID, notices[0].RunID)
}

func TestMembersPipelineFailsWhenNothingUpserted(t *testing.T) {
	t.Parallel()

	pipeline := NewMembersPipeline(&fakeRoster{}, &fakeMemberStore{}, nil, zap.NewNop())
	_, err := pipeline.Run(context.Background())
	require.Error(t, err)
}

type fakeLister struct {
	meetings []civic.Meeting
}

func (f *fakeLister) ListMeetings(context.Context) ([]civic.Meeting, error) {
	return f.meetings, nil
}

type fakeDocs struct {
	docs map[string]minutes.Document
}

func (f *fakeDocs) Fetch(_ context.Context, docURL string) (minutes.Document, error) {
	doc, ok := f.docs[docURL]
	if !ok {
		return minutes.Document{}, fmt.Errorf("no document at %s", docURL)
	}
	return doc, nil
}

const minutesHTML = `<html><body>
<p>MOTION by Aaron Brockett to approve Ordinance 8642 establishing the library district, SECOND by Nicole Speer. The motion PASSED on a seven to two vote of the council.</p>
<p>ADJOURNMENT</p>
</body></html>`

func TestMinutesPipelineRun(t *testing.T) {
	t.Parallel()

	meetingURL := "https://documents.example.gov/WebLink/DocView.aspx?id=101"
	lister := &fakeLister{meetings: []civic.Meeting{
		{
			Date:       time.Date(2023, time.April, 4, 0, 0, 0, 0, time.UTC),
			Title:      "Minutes - Apr-04-2023",
			Type:       "Meeting Minutes",
			MinutesURL: meetingURL,
		},
		{
			Title:      "Minutes - no document",
			MinutesURL: "https://documents.example.gov/missing",
		},
	}}
	docs := &fakeDocs{docs: map[string]minutes.Document{
		meetingURL: {URL: meetingURL, Data: []byte(minutesHTML), PDF: false},
	}}
	members := &fakeMemberStore{refs: []civic.MemberRef{
		{ID: "m1", Name: "Aaron Brockett"},
		{ID: "m2", Name: "Nicole Speer"},
	}}
	council := newFakeCouncilStore()
	archive := blobmemory.New()
	pub := pubmemory.New()

	pipeline := NewMinutesPipeline(lister, docs, members, council, archive, pub,
		MinutesConfig{MaxMeetings: 10}, zap.NewNop())

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.Records)
	require.Equal(t, 1, summary.Upserts)
	require.Equal(t, 1, summary.Skipped)

	require.Len(t, council.meetings, 1)
	require.Equal(t, "Minutes - Apr-04-2023", council.meetings[0].Title)

	decisions := council.decisions["mtg-1"]
	require.Len(t, decisions, 1)
	require.Equal(t, civic.DecisionMotion, decisions[0].Type)
	require.Equal(t, civic.OutcomeApproved, decisions[0].Outcome)
	require.Len(t, decisions[0].Involvement, 2)

	// The raw document was archived once.
	require.Equal(t, 1, archive.Len())

	notices := pub.Notices()
	require.Len(t, notices, 1)
	require.Equal(t, "minutes", notices[0].Source)
}

func TestMinutesPipelineHonorsMaxMeetings(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{meetings: []civic.Meeting{
		{Title: "Minutes - A", MinutesURL: "https://example.gov/a"},
		{Title: "Minutes - B", MinutesURL: "https://example.gov/b"},
	}}
	docs := &fakeDocs{docs: map[string]minutes.Document{
		"https://example.gov/a": {URL: "https://example.gov/a", Data: []byte(minutesHTML)},
		"https://example.gov/b": {URL: "https://example.gov/b", Data: []byte(minutesHTML)},
	}}
	council := newFakeCouncilStore()

	pipeline := NewMinutesPipeline(lister, docs, &fakeMemberStore{}, council, nil, nil,
		MinutesConfig{MaxMeetings: 1}, zap.NewNop())

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Records)
	require.Len(t, council.meetings, 1)
}

type fakeTracker struct {
	rows []votetracker.Row
	err  error
}

func (f *fakeTracker) Rows(context.Context) ([]votetracker.Row, error) {
	return f.rows, f.err
}

func TestTrackerPipelineRun(t *testing.T) {
	t.Parallel()

	tracker := &fakeTracker{rows: []votetracker.Row{
		{Member: "Brockett", Vote: "Y", Date: "2023-04-04", Title: "Library district funding", Code: "ORD-8642"},
		{Member: "Speer", Vote: "N", Date: "2023-04-04", Title: "Library district funding", Code: "ORD-8642"},
		{Member: "Nobody Known", Vote: "Y", Date: "2023-04-04", Title: "Library district funding", Code: "ORD-8642"},
		{Member: "Wallach", Vote: "ABSENT", Date: "2023-03-07", Title: "Vote recorded by BRL", Code: "Unknown"},
	}}
	members := &fakeMemberStore{refs: []civic.MemberRef{
		{ID: "m1", Name: "Aaron Brockett"},
		{ID: "m2", Name: "Nicole Speer"},
		{ID: "m3", Name: "Mark Wallach"},
	}}
	council := newFakeCouncilStore()
	pub := pubmemory.New()

	pipeline := NewTrackerPipeline(tracker, members, council, pub, TrackerConfig{
		SourceURL:  "https://tracker.example.org/votes",
		SourceName: "BRL Vote Tracker",
	}, zap.NewNop())

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, summary.Records)
	require.Equal(t, 3, summary.Upserts)
	require.Equal(t, 1, summary.Skipped)

	// One meeting per distinct date, oldest first.
	require.Len(t, council.meetings, 2)
	require.Equal(t, "BRL Vote Tracker Meeting - 2023-03-07", council.meetings[0].Title)
	require.Equal(t, "Regular Council Meeting", council.meetings[0].Type)
	require.Equal(t, time.Date(2023, time.March, 7, 0, 0, 0, 0, time.UTC), council.meetings[0].Date)

	require.Len(t, council.votes, 3)
	require.Equal(t, civic.VoteAbsent, council.votes[0].Value)
	require.Equal(t, "BRL Vote Tracker", council.votes[0].SourceName)

	// The Unknown category produces no tags.
	require.Len(t, council.agendaItems, 3)
	require.Empty(t, council.agendaItems[0].Tags)
	require.Equal(t, []string{"ORD-8642"}, council.agendaItems[1].Tags)

	notices := pub.Notices()
	require.Len(t, notices, 1)
	require.Equal(t, "votetracker", notices[0].Source)
}

func TestTrackerPipelineFailsWithoutRows(t *testing.T) {
	t.Parallel()

	pipeline := NewTrackerPipeline(&fakeTracker{}, &fakeMemberStore{}, newFakeCouncilStore(), nil,
		TrackerConfig{}, zap.NewNop())
	_, err := pipeline.Run(context.Background())
	require.Error(t, err)
}
