package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/ingest"
	"github.com/civiclens/council-scraper/internal/storage/postgres"
	"github.com/civiclens/council-scraper/internal/votetracker"
)

// newTrackerCmd ingests the third-party vote tracker spreadsheet.
func newTrackerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "votetracker",
		Short: "Ingest votes from the third-party vote tracker.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := envFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			startAdmin(ctx, e)

			client, err := newFetchClient(e.cfg, e.logger)
			if err != nil {
				return fmt.Errorf("build http client: %w", err)
			}

			memberStore, err := postgres.NewMemberStore(ctx, dbConfig(e.cfg))
			if err != nil {
				return fmt.Errorf("open member store: %w", err)
			}
			defer memberStore.Close()

			councilStore, err := postgres.NewCouncilStore(ctx, dbConfig(e.cfg))
			if err != nil {
				return fmt.Errorf("open council store: %w", err)
			}
			defer councilStore.Close()

			pub, closePub, err := newNotifier(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer closePub()

			tracker := votetracker.NewTracker(client, votetracker.Config{
				TrackerURL: e.cfg.Sources.TrackerURL,
				SourceName: e.cfg.Sources.TrackerName,
			}, e.logger)

			pipeline := ingest.NewTrackerPipeline(tracker, memberStore, councilStore, pub,
				ingest.TrackerConfig{
					SourceURL:  e.cfg.Sources.TrackerURL,
					SourceName: e.cfg.Sources.TrackerName,
				}, e.logger)

			summary, err := pipeline.Run(ctx)
			if err != nil {
				return err
			}
			e.logger.Info("votetracker run complete",
				zap.String("run_id", summary.RunID),
				zap.Int("votes", summary.Upserts),
				zap.Int("skipped", summary.Skipped),
			)
			return nil
		},
	}
}
