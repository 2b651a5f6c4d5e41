package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/fishcast/internal/domain/ratelimit"
)

// WindowStore implements ratelimit.WindowStore on the rate_limits table.
type WindowStore struct {
	pool *pgxpool.Pool
}

// NewWindowStore constructs the store.
func NewWindowStore(pool *pgxpool.Pool) *WindowStore {
	return &WindowStore{pool: pool}
}

// IncrementIfBelow counts the request in a single upsert; no row comes back
// when the window is already full.
func (s *WindowStore) IncrementIfBelow(ctx context.Context, key ratelimit.WindowKey, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	var count int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO rate_limits (client_id, endpoint, window_start, window_seconds, request_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (client_id, endpoint, window_start, window_seconds) DO UPDATE
		SET request_count = rate_limits.request_count + 1
		WHERE rate_limits.request_count < $5
		RETURNING request_count
	`, key.ClientID, key.Endpoint, key.Start, int(key.Length/time.Second), limit).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *WindowStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ ratelimit.WindowStore = (*WindowStore)(nil)
