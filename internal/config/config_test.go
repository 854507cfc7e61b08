package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
sources:
  members_url: https://example.gov/council
  minutes_url: https://docs.example.gov/WebLink/Browse.aspx?id=1
  tracker_url: https://tracker.example.org/votes/
  tracker_name: Example Tracker
http:
  user_agent: test-agent
  timeout_seconds: 45
  max_retries: 4
headless:
  enabled: true
  max_parallel: 2
  nav_timeout_seconds: 20
minutes:
  max_folders: 3
  max_meetings: 7
db:
  dsn: postgres://localhost/council
storage:
  backend: local
  local_dir: /tmp/blobs
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sources.MembersURL != "https://example.gov/council" {
		t.Fatalf("expected members_url override, got %q", cfg.Sources.MembersURL)
	}
	if cfg.Sources.TrackerName != "Example Tracker" {
		t.Fatalf("expected tracker_name override, got %q", cfg.Sources.TrackerName)
	}
	if cfg.HTTP.UserAgent != "test-agent" || cfg.HTTP.MaxRetries != 4 {
		t.Fatalf("expected http overrides to apply: %+v", cfg.HTTP)
	}
	if cfg.Minutes.MaxMeetings != 7 {
		t.Fatalf("expected minutes.max_meetings 7, got %d", cfg.Minutes.MaxMeetings)
	}
	if cfg.Storage.Backend != "local" || cfg.Storage.LocalDir != "/tmp/blobs" {
		t.Fatalf("expected local storage config: %+v", cfg.Storage)
	}
	if cfg.Logging.Development {
		t.Fatalf("expected development logging disabled")
	}
	if got := cfg.HTTPTimeout(); got != 45*time.Second {
		t.Fatalf("expected http timeout 45s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.TimeoutSeconds != 30 {
		t.Fatalf("expected default timeout 30, got %d", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.Minutes.MaxMeetings != 10 {
		t.Fatalf("expected default max_meetings 10, got %d", cfg.Minutes.MaxMeetings)
	}
	if cfg.Storage.Backend != "none" {
		t.Fatalf("expected default storage backend none, got %q", cfg.Storage.Backend)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Sources: SourcesConfig{
			MembersURL: "https://example.gov/council",
			MinutesURL: "https://docs.example.gov/browse",
			TrackerURL: "https://tracker.example.org/",
		},
		HTTP:    HTTPConfig{TimeoutSeconds: 10},
		Minutes: MinutesConfig{MaxFolders: 5, MaxMeetings: 10},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing members url",
			cfg: func() Config {
				c := base
				c.Sources.MembersURL = ""
				return c
			}(),
			want: "sources.members_url",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.HTTP.TimeoutSeconds = 0
				return c
			}(),
			want: "http.timeout_seconds",
		},
		{
			name: "headless missing max parallel",
			cfg: func() Config {
				c := base
				c.Headless.Enabled = true
				c.Headless.MaxParallel = 0
				return c
			}(),
			want: "headless.max_parallel",
		},
		{
			name: "invalid max meetings",
			cfg: func() Config {
				c := base
				c.Minutes.MaxMeetings = 0
				return c
			}(),
			want: "minutes.max_meetings",
		},
		{
			name: "local storage missing dir",
			cfg: func() Config {
				c := base
				c.Storage.Backend = "local"
				return c
			}(),
			want: "storage.local_dir",
		},
		{
			name: "unknown storage backend",
			cfg: func() Config {
				c := base
				c.Storage.Backend = "s3"
				return c
			}(),
			want: "storage.backend",
		},
		{
			name: "pubsub topic without project",
			cfg: func() Config {
				c := base
				c.PubSub.TopicName = "records"
				return c
			}(),
			want: "pubsub.project_id",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
