package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/metrics"
	"github.com/civiclens/council-scraper/internal/publisher"
)

// rosterScraper is the slice of the members scraper the pipeline needs.
type rosterScraper interface {
	Scrape(ctx context.Context) ([]civic.Member, error)
}

// MembersPipeline scrapes the council roster and upserts the members.
type MembersPipeline struct {
	scraper rosterScraper
	store   memberStore
	pub     publisher.Publisher
	logger  *zap.Logger
}

// NewMembersPipeline wires the roster pipeline.
func NewMembersPipeline(scraper rosterScraper, store memberStore, pub publisher.Publisher, logger *zap.Logger) *MembersPipeline {
	return &MembersPipeline{
		scraper: scraper,
		store:   store,
		pub:     pub,
		logger:  logger.Named("ingest.members"),
	}
}

// Run scrapes the roster and upserts every member found. A member
// whose upsert fails is logged and skipped; the run fails only when it
// produced nothing.
func (p *MembersPipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), Source: "members"}
	logger := p.logger.With(zap.String("run_id", summary.RunID))

	members, err := p.scraper.Scrape(ctx)
	if err != nil {
		return summary, fmt.Errorf("scrape roster: %w", err)
	}
	summary.Records = len(members)
	metrics.MembersScraped.Add(float64(len(members)))

	for _, member := range members {
		id, err := p.store.UpsertMember(ctx, member)
		if err != nil {
			summary.Skipped++
			logger.Warn("upsert member failed",
				zap.String("member", member.Name),
				zap.Error(err),
			)
			continue
		}
		summary.Upserts++
		logger.Debug("upserted member",
			zap.String("member", member.Name),
			zap.String("id", id),
		)
	}

	if summary.Upserts == 0 {
		return summary, fmt.Errorf("roster run produced no members")
	}

	logger.Info("roster run finished",
		zap.Int("records", summary.Records),
		zap.Int("upserts", summary.Upserts),
		zap.Int("skipped", summary.Skipped),
	)
	publish(ctx, p.pub, summary, logger)
	return summary, nil
}
