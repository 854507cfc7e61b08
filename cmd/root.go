// Package cmd defines the council-scraper command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/admin"
	"github.com/civiclens/council-scraper/internal/config"
	"github.com/civiclens/council-scraper/internal/logging"
)

var cfgFile string

// envKeyType is the key for storing the runtime environment in the
// command context.
type envKeyType string

const envKey envKeyType = "env"

// env carries everything a subcommand needs that is built once per
// invocation.
type env struct {
	cfg    config.Config
	logger *zap.Logger
}

// envFrom retrieves the environment injected by PersistentPreRunE.
func envFrom(cmd *cobra.Command) (*env, error) {
	e, ok := cmd.Context().Value(envKey).(*env)
	if !ok || e == nil {
		return nil, fmt.Errorf("runtime environment not initialized")
	}
	return e, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "council-scraper",
		Short: "Scrapers for municipal council records.",
		Long: `council-scraper collects public municipal records: the council
roster from the city website, decisions extracted from meeting-minutes
documents, and individual votes from a third-party vote tracker. Each
source runs as its own subcommand and upserts into Postgres.`,
		SilenceUsage: true,

		// Runs after flags are parsed but before the subcommand's
		// RunE, so every subcommand sees a loaded config and logger.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			ctx := context.WithValue(cmd.Context(), envKey, &env{cfg: cfg, logger: logger})
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if e, ok := cmd.Context().Value(envKey).(*env); ok && e != nil {
				_ = e.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (env vars with prefix COUNCIL override)")

	cmd.AddCommand(newMembersCmd())
	cmd.AddCommand(newMinutesCmd())
	cmd.AddCommand(newTrackerCmd())

	return cmd
}

// Execute is the main entry point. It wires signal handling so a run
// can be interrupted cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// startAdmin serves health and metrics in the background when an
// address is configured.
func startAdmin(ctx context.Context, e *env) {
	addr := e.cfg.Admin.ListenAddr
	if addr == "" {
		return
	}
	srv := admin.NewServer(e.logger)
	go func() {
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			e.logger.Warn("admin server stopped", zap.Error(err))
		}
	}()
}
