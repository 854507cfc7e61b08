// Package ingest wires the scrapers to the stores and runs them as
// pipelines.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/publisher"
)

// Summary reports what one pipeline run produced.
type Summary struct {
	RunID   string
	Source  string
	Records int
	Upserts int
	Skipped int
}

// memberStore is the slice of the member store the pipelines need.
type memberStore interface {
	UpsertMember(ctx context.Context, member civic.Member) (string, error)
	ListMembers(ctx context.Context) ([]civic.MemberRef, error)
}

// councilStore is the slice of the council store the pipelines need.
type councilStore interface {
	UpsertMeeting(ctx context.Context, meeting civic.Meeting) (string, error)
	ReplaceDecisions(ctx context.Context, meetingID string, decisions []civic.Decision) error
	UpsertAgendaItem(ctx context.Context, item civic.AgendaItem) (string, error)
	UpsertVote(ctx context.Context, vote civic.Vote) error
}

// publish emits a completion notice when a publisher is configured.
// Runs without one simply skip the step.
func publish(ctx context.Context, pub publisher.Publisher, summary Summary, logger *zap.Logger) {
	if pub == nil {
		return
	}
	notice := publisher.Notice{
		RunID:      summary.RunID,
		Source:     summary.Source,
		Records:    summary.Records,
		Upserts:    summary.Upserts,
		Skipped:    summary.Skipped,
		FinishedAt: time.Now().UTC(),
	}
	if err := pub.Publish(ctx, notice); err != nil {
		logger.Warn("publish ingest notice failed",
			zap.String("run_id", summary.RunID),
			zap.Error(err),
		)
	}
}

// contentHash names archived blobs by their content.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
