package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Open creates a pool and verifies it with a ping.
func Open(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS api_cache (
		provider   TEXT NOT NULL,
		cache_key  TEXT NOT NULL,
		payload    BYTEA NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (provider, cache_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache (expires_at)`,
	`CREATE TABLE IF NOT EXISTS rate_limits (
		client_id      TEXT NOT NULL,
		endpoint       TEXT NOT NULL,
		window_start   TIMESTAMPTZ NOT NULL,
		window_seconds INTEGER NOT NULL,
		request_count  INTEGER NOT NULL,
		PRIMARY KEY (client_id, endpoint, window_start, window_seconds)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rate_limits_window_start ON rate_limits (window_start)`,
	`CREATE TABLE IF NOT EXISTS species_rules (
		species_id           TEXT PRIMARY KEY,
		common_name          TEXT NOT NULL,
		season_start_month   SMALLINT NOT NULL,
		season_end_month     SMALLINT NOT NULL,
		preferred_tide_state TEXT NOT NULL,
		preferred_wind_max   DOUBLE PRECISION NOT NULL DEFAULT 0,
		preferred_conditions TEXT NOT NULL DEFAULT '',
		gear_bait            TEXT NOT NULL DEFAULT '',
		gear_lure            TEXT NOT NULL DEFAULT '',
		gear_line_weight     TEXT NOT NULL DEFAULT '',
		gear_leader          TEXT NOT NULL DEFAULT '',
		gear_rig             TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS tackle_items (
		id       BIGSERIAL PRIMARY KEY,
		name     TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		notes    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS species_tackle (
		species_id     TEXT NOT NULL REFERENCES species_rules (species_id) ON DELETE CASCADE,
		tackle_item_id BIGINT NOT NULL REFERENCES tackle_items (id) ON DELETE CASCADE,
		priority       SMALLINT NOT NULL,
		PRIMARY KEY (species_id, tackle_item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS saved_locations (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		region      TEXT NOT NULL DEFAULT '',
		state       TEXT NOT NULL DEFAULT '',
		lat         DOUBLE PRECISION NOT NULL,
		lng         DOUBLE PRECISION NOT NULL,
		timezone    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		UNIQUE (name, state)
	)`,
}

// Migrate creates every table the service needs. It is safe to run on each start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return nil
}
