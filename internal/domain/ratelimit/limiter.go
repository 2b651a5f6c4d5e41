package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/fishcast/pkg/util"
)

type window struct {
	length time.Duration
	limit  int
}

// Limiter is a fixed-window counter checked per minute and then per hour.
// A client can send up to twice the per-minute limit across a minute boundary.
type Limiter struct {
	store  WindowStore
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewLimiter constructs a limiter backed by store.
func NewLimiter(store WindowStore, cfg Config, logger *slog.Logger) *Limiter {
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	return &Limiter{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "ratelimit.limiter"),
		now:    util.NowUTC,
	}
}

// CheckLimit counts the request against the minute window and then the hour
// window. The first full window short-circuits the check.
func (l *Limiter) CheckLimit(ctx context.Context, clientID, endpoint string) (Decision, error) {
	if !l.cfg.Enabled {
		return Decision{Allowed: true}, nil
	}
	now := l.now()
	windows := []window{
		{length: time.Minute, limit: l.cfg.PerMinute},
		{length: time.Hour, limit: l.cfg.PerHour},
	}
	for _, w := range windows {
		key := WindowKey{
			ClientID: clientID,
			Endpoint: endpoint,
			Start:    now.Truncate(w.length),
			Length:   w.length,
		}
		counted, err := l.store.IncrementIfBelow(ctx, key, w.limit)
		if err != nil {
			return Decision{}, fmt.Errorf("increment %s window: %w", w.length, err)
		}
		if !counted {
			return Decision{Allowed: false, RetryAfter: retryAfter(now, w.length)}, nil
		}
	}
	return Decision{Allowed: true}, nil
}

// Prune removes windows older than the configured retention.
func (l *Limiter) Prune(ctx context.Context) {
	removed, err := l.store.PruneBefore(ctx, l.now().Add(-l.cfg.Retention))
	if err != nil {
		l.logger.Warn("rate window prune failed", "error", err)
		return
	}
	if removed > 0 {
		l.logger.Debug("rate windows pruned", "removed", removed)
	}
}

func retryAfter(now time.Time, length time.Duration) time.Duration {
	seconds := int64(length / time.Second)
	return time.Duration(seconds-now.Unix()%seconds) * time.Second
}
