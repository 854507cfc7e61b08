package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/metrics"
)

// CouncilStore persists meetings, decisions, agenda items, and votes.
type CouncilStore struct {
	pool pgxPool
}

// NewCouncilStore creates a Postgres-backed CouncilStore.
func NewCouncilStore(ctx context.Context, cfg Config) (*CouncilStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &CouncilStore{pool: pool}, nil
}

// NewCouncilStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewCouncilStoreWithPool(pool pgxPool) (*CouncilStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &CouncilStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *CouncilStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const upsertMeetingSQL = `
INSERT INTO meetings (
	id, date, title, meeting_type, minutes_url, folder
) VALUES (
	$1,$2,$3,$4,$5,$6
)
ON CONFLICT (date, title) DO UPDATE SET
	meeting_type = EXCLUDED.meeting_type,
	minutes_url = EXCLUDED.minutes_url,
	folder = EXCLUDED.folder
RETURNING id`

// UpsertMeeting inserts or updates the meeting keyed by (date, title)
// and returns its row id.
func (s *CouncilStore) UpsertMeeting(ctx context.Context, meeting civic.Meeting) (string, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("council store is not configured")
	}
	if meeting.Title == "" {
		return "", fmt.Errorf("meeting title is required")
	}
	id := meeting.ID
	if id == "" {
		id = uuid.NewString()
	}

	var rowID string
	err := s.pool.QueryRow(ctx, upsertMeetingSQL,
		id,
		meetingDate(meeting.Date),
		meeting.Title,
		meeting.Type,
		meeting.MinutesURL,
		meeting.Folder,
	).Scan(&rowID)
	if err != nil {
		return "", fmt.Errorf("upsert meeting %s: %w", meeting.Title, err)
	}
	metrics.RowsUpserted.WithLabelValues("meetings").Inc()
	return rowID, nil
}

const insertDecisionSQL = `
INSERT INTO decisions (
	id, meeting_id, title, description, decision_type, outcome, source_text
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`

const insertInvolvementSQL = `
INSERT INTO decision_members (
	decision_id, member_id, role, vote_value
) VALUES (
	$1,$2,$3,$4
)`

// ReplaceDecisions replaces the meeting's stored decisions with the
// given set, involvement rows included. Rescrapes of the same minutes
// therefore converge instead of accumulating duplicates.
func (s *CouncilStore) ReplaceDecisions(ctx context.Context, meetingID string, decisions []civic.Decision) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("council store is not configured")
	}
	if meetingID == "" {
		return fmt.Errorf("meeting id is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace decisions: %w", err)
	}
	if err := s.replaceDecisionsInTx(ctx, tx, meetingID, decisions); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace decisions: %w", err)
	}
	metrics.RowsUpserted.WithLabelValues("decisions").Add(float64(len(decisions)))
	return nil
}

func (s *CouncilStore) replaceDecisionsInTx(ctx context.Context, tx pgx.Tx, meetingID string, decisions []civic.Decision) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM decision_members WHERE decision_id IN (SELECT id FROM decisions WHERE meeting_id = $1)`,
		meetingID,
	); err != nil {
		return fmt.Errorf("delete involvement rows: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM decisions WHERE meeting_id = $1`, meetingID); err != nil {
		return fmt.Errorf("delete decisions: %w", err)
	}

	for _, decision := range decisions {
		decisionID := decision.ID
		if decisionID == "" {
			decisionID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, insertDecisionSQL,
			decisionID,
			meetingID,
			decision.Title,
			decision.Description,
			string(decision.Type),
			string(decision.Outcome),
			decision.SourceText,
		); err != nil {
			return fmt.Errorf("insert decision %s: %w", decision.Title, err)
		}
		for _, inv := range decision.Involvement {
			if _, err := tx.Exec(ctx, insertInvolvementSQL,
				decisionID,
				inv.MemberID,
				string(inv.Role),
				voteValueArg(inv.Vote),
			); err != nil {
				return fmt.Errorf("insert involvement for %s: %w", inv.MemberName, err)
			}
		}
	}
	return nil
}

const upsertAgendaItemSQL = `
INSERT INTO agenda_items (
	id, meeting_id, title, category, tags
) VALUES (
	$1,$2,$3,$4,$5
)
ON CONFLICT (meeting_id, title) DO UPDATE SET
	category = EXCLUDED.category,
	tags = EXCLUDED.tags
RETURNING id`

// UpsertAgendaItem inserts or updates the agenda item keyed by
// (meeting_id, title) and returns its row id.
func (s *CouncilStore) UpsertAgendaItem(ctx context.Context, item civic.AgendaItem) (string, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("council store is not configured")
	}
	if item.MeetingID == "" || item.Title == "" {
		return "", fmt.Errorf("agenda item needs meeting id and title")
	}
	id := item.ID
	if id == "" {
		id = uuid.NewString()
	}

	var rowID string
	err := s.pool.QueryRow(ctx, upsertAgendaItemSQL,
		id,
		item.MeetingID,
		item.Title,
		item.Category,
		item.Tags,
	).Scan(&rowID)
	if err != nil {
		return "", fmt.Errorf("upsert agenda item %s: %w", item.Title, err)
	}
	metrics.RowsUpserted.WithLabelValues("agenda_items").Inc()
	return rowID, nil
}

const upsertVoteSQL = `
INSERT INTO votes (
	agenda_item_id, member_id, vote_value, source_url, source_name
) VALUES (
	$1,$2,$3,$4,$5
)
ON CONFLICT (agenda_item_id, member_id) DO UPDATE SET
	vote_value = EXCLUDED.vote_value,
	source_url = EXCLUDED.source_url,
	source_name = EXCLUDED.source_name`

// UpsertVote records a member's vote on an agenda item. Re-ingesting
// the tracker overwrites the prior value.
func (s *CouncilStore) UpsertVote(ctx context.Context, vote civic.Vote) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("council store is not configured")
	}
	if vote.AgendaItemID == "" || vote.MemberID == "" {
		return fmt.Errorf("vote needs agenda item id and member id")
	}
	if _, err := s.pool.Exec(ctx, upsertVoteSQL,
		vote.AgendaItemID,
		vote.MemberID,
		string(vote.Value),
		vote.SourceURL,
		vote.SourceName,
	); err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	metrics.RowsUpserted.WithLabelValues("votes").Inc()
	metrics.VotesRecorded.Inc()
	return nil
}

// meetingDate maps the zero time to NULL so undated minutes do not
// collide on a sentinel date.
func meetingDate(d time.Time) any {
	if d.IsZero() {
		return nil
	}
	return d
}

// voteValueArg maps the empty vote (movers, seconders) to NULL.
func voteValueArg(v civic.VoteValue) any {
	if v == "" {
		return nil
	}
	return string(v)
}
