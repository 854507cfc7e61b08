// Package memory provides an in-process publisher for tests and runs
// without a configured topic.
package memory

import (
	"context"
	"sync"

	"github.com/civiclens/council-scraper/internal/publisher"
)

// Publisher collects notices in memory.
type Publisher struct {
	mu      sync.Mutex
	notices []publisher.Notice
}

// New creates an empty in-memory publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the notice.
func (p *Publisher) Publish(_ context.Context, notice publisher.Notice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, notice)
	return nil
}

// Notices returns a copy of everything published so far.
func (p *Publisher) Notices() []publisher.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publisher.Notice(nil), p.notices...)
}
