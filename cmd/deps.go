package cmd

import (
	"context"
	"fmt"
	"time"

	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/blob"
	"github.com/civiclens/council-scraper/internal/blob/gcs"
	"github.com/civiclens/council-scraper/internal/blob/local"
	"github.com/civiclens/council-scraper/internal/config"
	"github.com/civiclens/council-scraper/internal/fetch"
	"github.com/civiclens/council-scraper/internal/publisher"
	"github.com/civiclens/council-scraper/internal/publisher/pubsub"
	"github.com/civiclens/council-scraper/internal/storage/postgres"
)

// newFetchClient builds the plain HTTP client from config.
func newFetchClient(cfg config.Config, logger *zap.Logger) (*fetch.Client, error) {
	return fetch.NewClient(fetch.Config{
		UserAgent:      cfg.HTTP.UserAgent,
		Timeout:        cfg.HTTPTimeout(),
		MaxRetries:     cfg.HTTP.MaxRetries,
		BackoffInitial: time.Duration(cfg.HTTP.BackoffInitialMs) * time.Millisecond,
		BackoffMax:     time.Duration(cfg.HTTP.BackoffMaxMs) * time.Millisecond,
		Delay:          time.Duration(cfg.HTTP.DelayMs) * time.Millisecond,
	}, logger)
}

// newRenderer builds the headless Chrome renderer from config.
func newRenderer(cfg config.Config, logger *zap.Logger) (*fetch.Renderer, error) {
	return fetch.NewRenderer(fetch.RendererConfig{
		Enabled:     cfg.Headless.Enabled,
		UserAgent:   cfg.HTTP.UserAgent,
		MaxParallel: cfg.Headless.MaxParallel,
		NavTimeout:  time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		DomainQPS:   cfg.Headless.DomainQPS,
	}, logger)
}

func dbConfig(cfg config.Config) postgres.Config {
	return postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.ConnLifetime(),
	}
}

// newArchive selects the blob backend for raw-document archival. A
// "none" backend returns nil, which disables archival downstream.
func newArchive(ctx context.Context, cfg config.Config) (blob.Store, func(), error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case "", "none":
		return nil, noop, nil
	case "local":
		store, err := local.New(local.Config{BaseDir: cfg.Storage.LocalDir})
		if err != nil {
			return nil, noop, fmt.Errorf("local blob store: %w", err)
		}
		return store, noop, nil
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("gcs blob store: %w", err)
		}
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newNotifier builds the Pub/Sub publisher when a topic is configured.
// Without one, runs simply skip the completion notice.
func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (publisher.Publisher, func(), error) {
	noop := func() {}
	if cfg.PubSub.TopicName == "" {
		return nil, noop, nil
	}
	pub, err := pubsub.New(ctx, pubsub.Config{
		ProjectID: cfg.PubSub.ProjectID,
		TopicName: cfg.PubSub.TopicName,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("pubsub publisher: %w", err)
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Warn("close pubsub publisher", zap.Error(err))
		}
	}, nil
}
