// Package publisher emits ingest-completion notices.
package publisher

import (
	"context"
	"time"
)

// Notice describes one finished ingest run.
type Notice struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	Records    int       `json:"records"`
	Upserts    int       `json:"upserts"`
	Skipped    int       `json:"skipped"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher delivers ingest notices to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, notice Notice) error
}
