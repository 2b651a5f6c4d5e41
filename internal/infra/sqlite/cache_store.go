package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yanqian/fishcast/internal/domain/cache"
)

// CacheStore implements cache.Store. Timestamps are stored as unix milliseconds.
type CacheStore struct {
	db *sql.DB
}

// NewCacheStore constructs the store.
func NewCacheStore(db *sql.DB) *CacheStore {
	return &CacheStore{db: db}
}

func (s *CacheStore) Get(ctx context.Context, provider, key string) (cache.Entry, bool, error) {
	var (
		entry              = cache.Entry{Provider: provider, Key: key}
		fetched, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, fetched_at, expires_at
		FROM api_cache
		WHERE provider = ? AND cache_key = ?
	`, provider, key).Scan(&entry.Payload, &fetched, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, err
	}
	entry.FetchedAt = time.UnixMilli(fetched).UTC()
	entry.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return entry, true, nil
}

func (s *CacheStore) Set(ctx context.Context, entry cache.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_cache (provider, cache_key, payload, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (provider, cache_key) DO UPDATE
		SET payload = excluded.payload,
		    fetched_at = excluded.fetched_at,
		    expires_at = excluded.expires_at
	`, entry.Provider, entry.Key, entry.Payload, entry.FetchedAt.UnixMilli(), entry.ExpiresAt.UnixMilli())
	return err
}

func (s *CacheStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM api_cache WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ cache.Store = (*CacheStore)(nil)
