package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/civic/match"
	"github.com/civiclens/council-scraper/internal/metrics"
	"github.com/civiclens/council-scraper/internal/publisher"
	"github.com/civiclens/council-scraper/internal/votetracker"
)

// trackerSource is the slice of the tracker scraper the pipeline needs.
type trackerSource interface {
	Rows(ctx context.Context) ([]votetracker.Row, error)
}

// TrackerConfig identifies the tracker as a vote source.
type TrackerConfig struct {
	// SourceURL is recorded on every vote row.
	SourceURL string
	// SourceName labels the votes, e.g. "BRL Vote Tracker".
	SourceName string
}

// TrackerPipeline ingests the third-party vote tracker into meetings,
// agenda items, and votes.
type TrackerPipeline struct {
	tracker trackerSource
	members memberStore
	council councilStore
	pub     publisher.Publisher
	cfg     TrackerConfig
	logger  *zap.Logger
}

// NewTrackerPipeline wires the tracker pipeline.
func NewTrackerPipeline(
	tracker trackerSource,
	members memberStore,
	council councilStore,
	pub publisher.Publisher,
	cfg TrackerConfig,
	logger *zap.Logger,
) *TrackerPipeline {
	return &TrackerPipeline{
		tracker: tracker,
		members: members,
		council: council,
		pub:     pub,
		cfg:     cfg,
		logger:  logger.Named("ingest.votetracker"),
	}
}

// Run ingests the tracker rows, one meeting per distinct date. Rows
// whose member cannot be matched are logged and skipped; the run fails
// only when no vote was recorded.
func (p *TrackerPipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), Source: "votetracker"}
	logger := p.logger.With(zap.String("run_id", summary.RunID))

	refs, err := p.members.ListMembers(ctx)
	if err != nil {
		return summary, fmt.Errorf("load members for matching: %w", err)
	}
	matcher := match.New(refs)

	rows, err := p.tracker.Rows(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch tracker rows: %w", err)
	}
	if len(rows) == 0 {
		return summary, fmt.Errorf("tracker produced no rows")
	}
	summary.Records = len(rows)

	for _, group := range votetracker.GroupByDate(rows) {
		meetingID, err := p.council.UpsertMeeting(ctx, civic.Meeting{
			Date:  trackerDate(group.Date),
			Title: fmt.Sprintf("BRL Vote Tracker Meeting - %s", group.Date),
			Type:  "Regular Council Meeting",
		})
		if err != nil {
			summary.Skipped += len(group.Rows)
			logger.Warn("upsert tracker meeting failed",
				zap.String("date", group.Date),
				zap.Error(err),
			)
			continue
		}

		for _, row := range group.Rows {
			if err := p.ingestRow(ctx, matcher, meetingID, row, logger); err != nil {
				summary.Skipped++
				logger.Warn("tracker row skipped",
					zap.String("member", row.Member),
					zap.Error(err),
				)
				continue
			}
			summary.Upserts++
		}
	}

	if summary.Upserts == 0 {
		return summary, fmt.Errorf("tracker run recorded no votes")
	}

	logger.Info("tracker run finished",
		zap.Int("records", summary.Records),
		zap.Int("upserts", summary.Upserts),
		zap.Int("skipped", summary.Skipped),
	)
	publish(ctx, p.pub, summary, logger)
	return summary, nil
}

func (p *TrackerPipeline) ingestRow(
	ctx context.Context,
	matcher *match.Matcher,
	meetingID string,
	row votetracker.Row,
	logger *zap.Logger,
) error {
	ref, ok := matcher.Find(row.Member)
	if !ok {
		metrics.NamesUnmatched.Inc()
		return fmt.Errorf("no member matches %q", row.Member)
	}
	metrics.NamesMatched.Inc()

	item := civic.AgendaItem{
		MeetingID: meetingID,
		Title:     truncateTitle(row.Title, 500),
		Category:  row.Code,
	}
	if row.Code != "Unknown" {
		item.Tags = []string{row.Code}
	}
	itemID, err := p.council.UpsertAgendaItem(ctx, item)
	if err != nil {
		return fmt.Errorf("upsert agenda item: %w", err)
	}

	vote := civic.Vote{
		AgendaItemID: itemID,
		MemberID:     ref.ID,
		Value:        votetracker.NormalizeVote(row.Vote),
		SourceURL:    p.cfg.SourceURL,
		SourceName:   p.cfg.SourceName,
	}
	if err := p.council.UpsertVote(ctx, vote); err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}

	logger.Debug("recorded vote",
		zap.String("member", ref.Name),
		zap.String("vote", string(vote.Value)),
	)
	return nil
}

var trackerDateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1-2-2006"}

// trackerDate parses the sheet's date column, zero when unparseable.
func trackerDate(raw string) time.Time {
	for _, layout := range trackerDateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d
		}
	}
	return time.Time{}
}

func truncateTitle(title string, limit int) string {
	if len(title) <= limit {
		return title
	}
	return title[:limit]
}
