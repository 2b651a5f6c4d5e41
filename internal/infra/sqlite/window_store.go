package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yanqian/fishcast/internal/domain/ratelimit"
)

// WindowStore implements ratelimit.WindowStore. Window starts are unix seconds.
type WindowStore struct {
	db *sql.DB
}

// NewWindowStore constructs the store.
func NewWindowStore(db *sql.DB) *WindowStore {
	return &WindowStore{db: db}
}

func (s *WindowStore) IncrementIfBelow(ctx context.Context, key ratelimit.WindowKey, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO rate_limits (client_id, endpoint, window_start, window_seconds, request_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT (client_id, endpoint, window_start, window_seconds) DO UPDATE
		SET request_count = request_count + 1
		WHERE request_count < ?
		RETURNING request_count
	`, key.ClientID, key.Endpoint, key.Start.Unix(), int64(key.Length/time.Second), limit).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *WindowStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE window_start < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ ratelimit.WindowStore = (*WindowStore)(nil)
