package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/fetch"
	"github.com/civiclens/council-scraper/internal/ingest"
	"github.com/civiclens/council-scraper/internal/minutes"
	"github.com/civiclens/council-scraper/internal/storage/postgres"
)

// newMinutesCmd walks the documents portal and extracts decisions from
// the newest meeting minutes.
func newMinutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "minutes",
		Short: "Extract decisions from the newest meeting minutes.",
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

			// The portal builds its listings with JavaScript, so this
			// pipeline cannot run without the renderer.
			renderer, err := newRenderer(e.cfg, e.logger)
			if err != nil {
				if errors.Is(err, fetch.ErrRendererDisabled) {
					return fmt.Errorf("minutes requires headless.enabled: %w", err)
				}
				return fmt.Errorf("start renderer: %w", err)
			}
			defer renderer.Close()

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

			archive, closeArchive, err := newArchive(ctx, e.cfg)
			if err != nil {
				return err
			}
			defer closeArchive()

			pub, closePub, err := newNotifier(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer closePub()

			browser := minutes.NewBrowser(renderer, minutes.BrowseConfig{
				BaseURL:    e.cfg.Sources.DocumentsBase,
				BrowseURL:  e.cfg.Sources.MinutesURL,
				MaxFolders: e.cfg.Minutes.MaxFolders,
			}, e.logger)
			docs := minutes.NewDocumentFetcher(client, renderer, e.cfg.Sources.DocumentsBase, e.logger)

			pipeline := ingest.NewMinutesPipeline(browser, docs, memberStore, councilStore,
				archive, pub, ingest.MinutesConfig{
					MaxMeetings: e.cfg.Minutes.MaxMeetings,
					BlobPrefix:  e.cfg.Storage.Prefix,
				}, e.logger)

			summary, err := pipeline.Run(ctx)
			if err != nil {
				return err
			}
			e.logger.Info("minutes run complete",
				zap.String("run_id", summary.RunID),
				zap.Int("meetings", summary.Upserts),
				zap.Int("skipped", summary.Skipped),
			)
			return nil
		},
	}
}
