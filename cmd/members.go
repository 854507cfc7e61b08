package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/ingest"
	"github.com/civiclens/council-scraper/internal/members"
	"github.com/civiclens/council-scraper/internal/storage/postgres"
)

// newMembersCmd scrapes the council roster into the members table.
func newMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "Scrape the council roster and upsert members.",
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

			store, err := postgres.NewMemberStore(ctx, dbConfig(e.cfg))
			if err != nil {
				return fmt.Errorf("open member store: %w", err)
			}
			defer store.Close()

			pub, closePub, err := newNotifier(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer closePub()

			scraper := members.NewScraper(client, members.Config{
				BaseURL:    e.cfg.Sources.BaseURL,
				MembersURL: e.cfg.Sources.MembersURL,
			}, e.logger)

			pipeline := ingest.NewMembersPipeline(scraper, store, pub, e.logger)
			summary, err := pipeline.Run(ctx)
			if err != nil {
				return err
			}
			e.logger.Info("members run complete",
				zap.String("run_id", summary.RunID),
				zap.Int("upserts", summary.Upserts),
			)
			return nil
		},
	}
}
