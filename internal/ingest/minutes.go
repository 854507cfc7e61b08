package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/blob"
	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/civic/match"
	"github.com/civiclens/council-scraper/internal/minutes"
	"github.com/civiclens/council-scraper/internal/publisher"
)

// meetingLister is the slice of the portal walker the pipeline needs.
type meetingLister interface {
	ListMeetings(ctx context.Context) ([]civic.Meeting, error)
}

// documentFetcher is the slice of the document fetcher the pipeline
// needs.
type documentFetcher interface {
	Fetch(ctx context.Context, docURL string) (minutes.Document, error)
}

// MinutesConfig bounds a minutes run.
type MinutesConfig struct {
	// MaxMeetings caps how many of the newest meetings are processed.
	MaxMeetings int
	// BlobPrefix is prepended to archive paths.
	BlobPrefix string
}

// MinutesPipeline walks the documents portal, extracts decisions from
// the newest minutes, and persists them.
type MinutesPipeline struct {
	lister  meetingLister
	docs    documentFetcher
	members memberStore
	council councilStore
	archive blob.Store
	pub     publisher.Publisher
	cfg     MinutesConfig
	logger  *zap.Logger
}

// NewMinutesPipeline wires the minutes pipeline. archive may be nil
// when runs do not keep raw documents.
func NewMinutesPipeline(
	lister meetingLister,
	docs documentFetcher,
	members memberStore,
	council councilStore,
	archive blob.Store,
	pub publisher.Publisher,
	cfg MinutesConfig,
	logger *zap.Logger,
) *MinutesPipeline {
	if cfg.MaxMeetings <= 0 {
		cfg.MaxMeetings = 10
	}
	return &MinutesPipeline{
		lister:  lister,
		docs:    docs,
		members: members,
		council: council,
		archive: archive,
		pub:     pub,
		cfg:     cfg,
		logger:  logger.Named("ingest.minutes"),
	}
}

// Run processes the newest minutes documents. A meeting that fails or
// yields no decisions is logged and skipped; the run fails only when
// nothing was persisted.
func (p *MinutesPipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), Source: "minutes"}
	logger := p.logger.With(zap.String("run_id", summary.RunID))

	refs, err := p.members.ListMembers(ctx)
	if err != nil {
		return summary, fmt.Errorf("load members for matching: %w", err)
	}
	extractor := minutes.NewExtractor(match.New(refs), logger)

	meetings, err := p.lister.ListMeetings(ctx)
	if err != nil {
		return summary, fmt.Errorf("list meetings: %w", err)
	}
	if len(meetings) == 0 {
		return summary, fmt.Errorf("portal walk found no meetings")
	}
	if len(meetings) > p.cfg.MaxMeetings {
		meetings = meetings[:p.cfg.MaxMeetings]
	}
	summary.Records = len(meetings)

	for _, meeting := range meetings {
		if err := p.processMeeting(ctx, summary.RunID, meeting, extractor, logger); err != nil {
			summary.Skipped++
			logger.Warn("meeting skipped",
				zap.String("title", meeting.Title),
				zap.Error(err),
			)
			continue
		}
		summary.Upserts++
	}

	if summary.Upserts == 0 {
		return summary, fmt.Errorf("minutes run persisted no meetings")
	}

	logger.Info("minutes run finished",
		zap.Int("records", summary.Records),
		zap.Int("upserts", summary.Upserts),
		zap.Int("skipped", summary.Skipped),
	)
	publish(ctx, p.pub, summary, logger)
	return summary, nil
}

func (p *MinutesPipeline) processMeeting(
	ctx context.Context,
	runID string,
	meeting civic.Meeting,
	extractor *minutes.Extractor,
	logger *zap.Logger,
) error {
	doc, err := p.docs.Fetch(ctx, meeting.MinutesURL)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}

	p.archiveDocument(ctx, runID, doc, logger)

	text, err := doc.Text()
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	decisions := extractor.Extract(text)
	if len(decisions) == 0 {
		return fmt.Errorf("no decisions found")
	}

	meetingID, err := p.council.UpsertMeeting(ctx, meeting)
	if err != nil {
		return fmt.Errorf("upsert meeting: %w", err)
	}
	if err := p.council.ReplaceDecisions(ctx, meetingID, decisions); err != nil {
		return fmt.Errorf("replace decisions: %w", err)
	}

	logger.Info("persisted meeting",
		zap.String("title", meeting.Title),
		zap.String("meeting_id", meetingID),
		zap.Int("decisions", len(decisions)),
	)
	return nil
}

// archiveDocument stores the raw document bytes. Archive failures are
// logged, not fatal: the extraction already has the content in hand.
func (p *MinutesPipeline) archiveDocument(ctx context.Context, runID string, doc minutes.Document, logger *zap.Logger) {
	if p.archive == nil {
		return
	}
	ext, contentType := "html", "text/html; charset=utf-8"
	if doc.PDF {
		ext, contentType = "pdf", "application/pdf"
	}
	path := fmt.Sprintf("minutes/%s/%s.%s", runID, contentHash(doc.Data), ext)
	if p.cfg.BlobPrefix != "" {
		path = p.cfg.BlobPrefix + "/" + path
	}
	uri, err := p.archive.PutObject(ctx, path, contentType, bytes.NewReader(doc.Data))
	if err != nil {
		logger.Warn("archive document failed",
			zap.String("url", doc.URL),
			zap.Error(err),
		)
		return
	}
	logger.Debug("archived document",
		zap.String("url", doc.URL),
		zap.String("blob", uri),
	)
}
