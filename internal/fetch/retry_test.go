package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	policy := NewExponentialBackoff(3, time.Millisecond, 10*time.Millisecond)

	tests := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{name: "nil error", err: nil, attempt: 0, want: false},
		{name: "attempts exhausted", err: errors.New("boom"), attempt: 3, want: false},
		{name: "context canceled", err: context.Canceled, attempt: 0, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, attempt: 0, want: false},
		{name: "server error status", err: &StatusError{Code: http.StatusBadGateway}, attempt: 0, want: true},
		{name: "too many requests", err: &StatusError{Code: http.StatusTooManyRequests}, attempt: 1, want: true},
		{name: "not found status", err: &StatusError{Code: http.StatusNotFound}, attempt: 0, want: false},
		{name: "forbidden status", err: &StatusError{Code: http.StatusForbidden}, attempt: 0, want: false},
		{name: "generic error", err: errors.New("connection reset"), attempt: 1, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, policy.ShouldRetry(tc.err, tc.attempt))
		})
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	max := 400 * time.Millisecond
	policy := NewExponentialBackoff(5, base, max)

	for attempt := 0; attempt < 6; attempt++ {
		got := policy.Backoff(attempt)
		require.GreaterOrEqual(t, got, time.Duration(0))
		require.LessOrEqual(t, got, max)
	}

	// The uncapped attempt stays within half-to-full of the base delay.
	first := policy.Backoff(0)
	require.GreaterOrEqual(t, first, base/2)
	require.LessOrEqual(t, first, base)
}

func TestNewExponentialBackoffDefaults(t *testing.T) {
	t.Parallel()

	policy := NewExponentialBackoff(0, 0, 0)
	require.Equal(t, 2, policy.maxAttempts)
	require.Equal(t, 250*time.Millisecond, policy.baseDelay)
	require.Equal(t, 5*time.Second, policy.maxDelay)
}
