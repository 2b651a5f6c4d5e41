package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// WindowKey identifies one fixed counting window for a client and endpoint.
type WindowKey struct {
	ClientID string
	Endpoint string
	Start    time.Time
	Length   time.Duration
}

// Decision is the outcome of a limit check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Config mirrors the limiter section of the service configuration.
type Config struct {
	Enabled   bool
	PerMinute int
	PerHour   int
	Retention time.Duration
}

// WindowStore keeps per-window request counters.
type WindowStore interface {
	// IncrementIfBelow atomically increments the window counter when it is
	// below limit, creating the window at 1. It reports whether the request was counted.
	IncrementIfBelow(ctx context.Context, key WindowKey, limit int) (bool, error)
	// PruneBefore drops windows that started before cutoff.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExceededError is returned to callers once a window is full.
type ExceededError struct {
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", int(e.RetryAfter/time.Second))
}
