package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/metrics"
)

// Client fetches single pages using the Colly collector.
type Client struct {
	baseCollector *colly.Collector
	policy        *ExponentialBackoff
	logger        *zap.Logger
}

// NewClient constructs a configured Colly-based Client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []colly.CollectorOption{}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	base := colly.NewCollector(opts...)
	// Retries revisit the same URL.
	base.AllowURLRevisit = true
	base.WithTransport(newHTTPTransport(cfg.Timeout))
	base.SetRequestTimeout(cfg.Timeout)

	if cfg.Delay > 0 {
		if err := base.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 2,
			Delay:       cfg.Delay,
		}); err != nil {
			return nil, fmt.Errorf("configure limit rule: %w", err)
		}
	}

	return &Client{
		baseCollector: base,
		policy:        NewExponentialBackoff(cfg.MaxRetries, cfg.BackoffInitial, cfg.BackoffMax),
		logger:        logger,
	}, nil
}

// Fetch retrieves a page, retrying transient failures with backoff.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Page, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		page, err := c.fetchOnce(ctx, rawURL)
		if err == nil {
			metrics.PagesFetched.WithLabelValues("http").Inc()
			return page, nil
		}
		lastErr = err
		if !c.policy.ShouldRetry(err, attempt) {
			break
		}
		wait := c.policy.Backoff(attempt)
		c.logger.Debug("fetch retry",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if !sleepContext(ctx, wait) {
			return Page{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
		}
	}
	metrics.FetchErrors.WithLabelValues("http").Inc()
	return Page{}, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (Page, error) {
	collector := c.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		send(fetchResult{page: Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
		}})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= http.StatusBadRequest {
			send(fetchResult{err: &StatusError{Code: r.StatusCode, URL: rawURL}})
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return Page{}, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}
		return res.page, res.err
	default:
		return Page{}, fmt.Errorf("fetch of %s produced no result", rawURL)
	}
}

type fetchResult struct {
	page Page
	err  error
}

func newHTTPTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
