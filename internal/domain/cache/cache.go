package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yanqian/fishcast/pkg/metrics"
	"github.com/yanqian/fishcast/pkg/util"
)

// Cache is a best-effort TTL cache. Store failures never reach the caller:
// reads degrade to a miss and writes are logged and dropped.
type Cache struct {
	store    Store
	logger   *slog.Logger
	now      func() time.Time
	counters metrics.CacheCounters
}

// New constructs a Cache on top of store.
func New(store Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.With("component", "cache"),
		now:    util.NowUTC,
	}
}

// Get returns the payload for key when present and not expired.
func (c *Cache) Get(ctx context.Context, key Key) ([]byte, bool) {
	entry, ok, err := c.store.Get(ctx, key.Provider, key.Encoded())
	if err != nil {
		c.counters.Failure()
		c.logger.Warn("cache read failed", "provider", key.Provider, "error", err)
		return nil, false
	}
	if !ok || entry.Expired(c.now()) {
		c.counters.Miss()
		return nil, false
	}
	c.counters.Hit()
	return entry.Payload, true
}

// Set stores payload under key for ttl.
func (c *Cache) Set(ctx context.Context, key Key, payload []byte, ttl time.Duration) {
	now := c.now()
	entry := Entry{
		Provider:  key.Provider,
		Key:       key.Encoded(),
		Payload:   payload,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := c.store.Set(ctx, entry); err != nil {
		c.counters.Failure()
		c.logger.Warn("cache write failed", "provider", key.Provider, "error", err)
	}
}

// GetJSON decodes a cached payload into dst. A payload that no longer decodes is a miss.
func (c *Cache) GetJSON(ctx context.Context, key Key, dst any) bool {
	payload, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		c.logger.Warn("cache payload decode failed", "provider", key.Provider, "error", err)
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key Key, v any, ttl time.Duration) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache payload encode failed", "provider", key.Provider, "error", err)
		return
	}
	c.Set(ctx, key, payload, ttl)
}

// ClearExpired removes every expired entry. Failures are logged only.
func (c *Cache) ClearExpired(ctx context.Context) {
	removed, err := c.store.DeleteExpired(ctx, c.now())
	if err != nil {
		c.logger.Warn("cache sweep failed", "error", err)
		return
	}
	if removed > 0 {
		c.logger.Debug("cache sweep completed", "removed", removed)
	}
}

// Usage reports cache traffic since startup.
func (c *Cache) Usage() metrics.CacheUsage {
	return c.counters.Snapshot()
}
