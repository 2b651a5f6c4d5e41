package cache

import (
	"context"
	"time"
)

// Entry is a cached payload together with its lifecycle timestamps.
type Entry struct {
	Provider  string
	Key       string
	Payload   []byte
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer servable at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// Store persists cache entries keyed by (provider, key).
type Store interface {
	Get(ctx context.Context, provider, key string) (Entry, bool, error)
	// Set upserts the entry; concurrent writers for the same key are last-write-wins.
	Set(ctx context.Context, entry Entry) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
