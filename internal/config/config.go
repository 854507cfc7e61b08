// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Sources  SourcesConfig  `mapstructure:"sources"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Minutes  MinutesConfig  `mapstructure:"minutes"`
	DB       DBConfig       `mapstructure:"db"`
	Storage  StorageConfig  `mapstructure:"storage"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourcesConfig holds the URLs the pipelines scrape.
type SourcesConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	MembersURL    string `mapstructure:"members_url"`
	MinutesURL    string `mapstructure:"minutes_url"`
	DocumentsBase string `mapstructure:"documents_base"`
	TrackerURL    string `mapstructure:"tracker_url"`
	TrackerName   string `mapstructure:"tracker_name"`
}

// HTTPConfig configures the plain HTTP fetcher.
type HTTPConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
	DelayMs          int    `mapstructure:"delay_ms"`
}

// HeadlessConfig configures the chromedp renderer used for the
// documents portal.
type HeadlessConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	MaxParallel   int     `mapstructure:"max_parallel"`
	NavTimeoutSec int     `mapstructure:"nav_timeout_seconds"`
	DomainQPS     float64 `mapstructure:"domain_qps"`
}

// MinutesConfig bounds the minutes pipeline.
type MinutesConfig struct {
	MaxFolders  int `mapstructure:"max_folders"`
	MaxMeetings int `mapstructure:"max_meetings"`
}

// DBConfig controls the Postgres connection pool.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// StorageConfig selects the blob backend for raw-document archival.
type StorageConfig struct {
	// Backend is one of "none", "local", "gcs".
	Backend   string `mapstructure:"backend"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds notification settings. An empty topic disables
// publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// AdminConfig controls the metrics/health listener. Empty addr
// disables it.
type AdminConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COUNCIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.base_url", "https://bouldercolorado.gov")
	v.SetDefault("sources.members_url", "https://bouldercolorado.gov/government/city-council")
	v.SetDefault("sources.documents_base", "https://documents.bouldercolorado.gov")
	v.SetDefault("sources.minutes_url", "https://documents.bouldercolorado.gov/WebLink/Browse.aspx?id=10888&dbid=0&repo=LF8PROD2")
	v.SetDefault("sources.tracker_url", "https://boulderreportinglab.org/boulder-city-council-vote-tracker/")
	v.SetDefault("sources.tracker_name", "BRL Vote Tracker")
	v.SetDefault("http.user_agent", "council-scraper/0.1 (+github.com/civiclens/council-scraper)")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.delay_ms", 500)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.domain_qps", 0.5)
	v.SetDefault("minutes.max_folders", 5)
	v.SetDefault("minutes.max_meetings", 10)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("storage.backend", "none")
	v.SetDefault("storage.prefix", "raw")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Sources.MembersURL == "" {
		return fmt.Errorf("sources.members_url is required")
	}
	if c.Sources.MinutesURL == "" {
		return fmt.Errorf("sources.minutes_url is required")
	}
	if c.Sources.TrackerURL == "" {
		return fmt.Errorf("sources.tracker_url is required")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Minutes.MaxMeetings <= 0 {
		return fmt.Errorf("minutes.max_meetings must be > 0")
	}
	switch c.Storage.Backend {
	case "", "none":
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required for the local backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id is required when pubsub.topic_name is set")
	}
	return nil
}

// HTTPTimeout converts the configured timeout to a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ConnLifetime converts the configured pool lifetime to a duration.
func (c DBConfig) ConnLifetime() time.Duration {
	return time.Duration(c.ConnLifetimeMin) * time.Minute
}
