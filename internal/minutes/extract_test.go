package minutes

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/civic/match"
)

func testExtractor() *Extractor {
	matcher := match.New([]civic.MemberRef{
		{ID: "m1", Name: "Aaron Brockett"},
		{ID: "m2", Name: "Nicole Speer"},
		{ID: "m3", Name: "Mark Wallach"},
	})
	return NewExtractor(matcher, zap.NewNop())
}

const motionSection = `MOTION by Aaron Brockett to approve Ordinance 8642 establishing the new library district, SECOND by Nicole Speer. The motion PASSED by a vote of seven to two.

The roll call VOTE on the item was recorded in full for the official record as follows.
Brockett - YEA
Speer - YEA
Wallach - NAY`

func TestExtractMotionWithInvolvement(t *testing.T) {
	t.Parallel()

	decisions := testExtractor().Extract(motionSection)
	require.Len(t, decisions, 2)

	motion := decisions[0]
	require.Equal(t, civic.DecisionMotion, motion.Type)
	require.Equal(t, civic.OutcomeApproved, motion.Outcome)
	require.Equal(t, "MOTION by Aaron Brockett to approve Ordinance 8642 establishing the new library district, SECOND by Nicole Speer", motion.Title)

	require.Len(t, motion.Involvement, 2)
	require.Equal(t, civic.Involvement{
		MemberID: "m1", MemberName: "Aaron Brockett", Role: civic.RoleMover,
	}, motion.Involvement[0])
	require.Equal(t, civic.Involvement{
		MemberID: "m2", MemberName: "Nicole Speer", Role: civic.RoleSeconder,
	}, motion.Involvement[1])

	rollCall := decisions[1]
	require.Equal(t, civic.DecisionVote, rollCall.Type)
	require.Len(t, rollCall.Involvement, 3)
}

func TestExtractRecordedVotes(t *testing.T) {
	t.Parallel()

	text := `The council took a roll call VOTE on the annexation agreement and each member stated their position for the record as follows. Brockett - YEA. Speer - ABSTAIN. Wallach - NAY.`

	decisions := testExtractor().Extract(text)
	require.Len(t, decisions, 1)

	votes := decisions[0].Involvement
	require.Len(t, votes, 3)
	for _, inv := range votes {
		require.Equal(t, civic.RoleVoter, inv.Role)
	}
	require.Equal(t, civic.VoteYea, votes[0].Vote)
	require.Equal(t, civic.VoteAbstain, votes[1].Vote)
	require.Equal(t, civic.VoteNay, votes[2].Vote)
}

func TestExtractSkipsHeadersAndShortSections(t *testing.T) {
	t.Parallel()

	text := `MINUTES

CALL TO ORDER ROLL CALL

MOTION PASSED.

This paragraph is long enough to be considered but it talks about public comment on the greenway plan and contains no relevant keyword of any kind, so nothing is recorded for it at all.`

	decisions := testExtractor().Extract(text)
	require.Empty(t, decisions)
}

func TestExtractDropsUnmatchedNames(t *testing.T) {
	t.Parallel()

	text := `MOTION by Zebediah Quartermaine to adopt the updated municipal budget for the coming fiscal year, which was discussed at length during the session. The motion was APPROVED unanimously by all members present.`

	decisions := testExtractor().Extract(text)
	require.Len(t, decisions, 1)
	require.Empty(t, decisions[0].Involvement)
	require.Equal(t, civic.OutcomeApproved, decisions[0].Outcome)
}

func TestExtractOutcomeKeywords(t *testing.T) {
	t.Parallel()

	pad := " The full text of the item was read into the record and council discussion followed for several minutes before the final disposition was announced to the public in attendance."

	tests := []struct {
		name string
		text string
		want civic.Outcome
	}{
		{name: "denied", text: "The MOTION to rezone the parcel was DENIED." + pad, want: civic.OutcomeDenied},
		{name: "tabled", text: "Consideration of the ORDINANCE was TABLED until the next session." + pad, want: civic.OutcomeTabled},
		{name: "referred", text: "The RESOLUTION was REFERRED to the planning board for further study." + pad, want: civic.OutcomeReferred},
		{name: "unknown", text: "A MOTION concerning the sister-city agreement was discussed at length." + pad, want: civic.OutcomeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			decisions := testExtractor().Extract(tc.text)
			require.Len(t, decisions, 1)
			require.Equal(t, tc.want, decisions[0].Outcome)
		})
	}
}

func TestExtractDecisionTypePriority(t *testing.T) {
	t.Parallel()

	text := `The RESOLUTION concerning the ORDINANCE amendments was APPROVED after a MOTION from the floor, with all members present concurring in the final disposition of the item as read.`

	decisions := testExtractor().Extract(text)
	require.Len(t, decisions, 1)
	require.Equal(t, civic.DecisionMotion, decisions[0].Type)
}
