package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/fishcast/internal/domain/cache"
)

// CacheStore implements cache.Store on the api_cache table.
type CacheStore struct {
	pool *pgxpool.Pool
}

// NewCacheStore constructs the store.
func NewCacheStore(pool *pgxpool.Pool) *CacheStore {
	return &CacheStore{pool: pool}
}

func (s *CacheStore) Get(ctx context.Context, provider, key string) (cache.Entry, bool, error) {
	entry := cache.Entry{Provider: provider, Key: key}
	err := s.pool.QueryRow(ctx, `
		SELECT payload, fetched_at, expires_at
		FROM api_cache
		WHERE provider = $1 AND cache_key = $2
	`, provider, key).Scan(&entry.Payload, &entry.FetchedAt, &entry.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, err
	}
	return entry, true, nil
}

func (s *CacheStore) Set(ctx context.Context, entry cache.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_cache (provider, cache_key, payload, fetched_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, cache_key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    fetched_at = EXCLUDED.fetched_at,
		    expires_at = EXCLUDED.expires_at
	`, entry.Provider, entry.Key, entry.Payload, entry.FetchedAt, entry.ExpiresAt)
	return err
}

func (s *CacheStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ cache.Store = (*CacheStore)(nil)
