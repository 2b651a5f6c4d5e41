package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the database at path. ":memory:" is
// supported. A single connection serializes writers.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return db, nil
}

// Migrate creates every table the service needs. It is safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS api_cache (
			provider   TEXT NOT NULL,
			cache_key  TEXT NOT NULL,
			payload    BLOB NOT NULL,
			fetched_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			PRIMARY KEY (provider, cache_key)
		);
		CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache(expires_at);

		CREATE TABLE IF NOT EXISTS rate_limits (
			client_id      TEXT NOT NULL,
			endpoint       TEXT NOT NULL,
			window_start   INTEGER NOT NULL,
			window_seconds INTEGER NOT NULL,
			request_count  INTEGER NOT NULL,
			PRIMARY KEY (client_id, endpoint, window_start, window_seconds)
		);
		CREATE INDEX IF NOT EXISTS idx_rate_limits_window_start ON rate_limits(window_start);

		CREATE TABLE IF NOT EXISTS species_rules (
			species_id           TEXT PRIMARY KEY,
			common_name          TEXT NOT NULL,
			season_start_month   INTEGER NOT NULL,
			season_end_month     INTEGER NOT NULL,
			preferred_tide_state TEXT NOT NULL,
			preferred_wind_max   REAL NOT NULL DEFAULT 0,
			preferred_conditions TEXT NOT NULL DEFAULT '',
			gear_bait            TEXT NOT NULL DEFAULT '',
			gear_lure            TEXT NOT NULL DEFAULT '',
			gear_line_weight     TEXT NOT NULL DEFAULT '',
			gear_leader          TEXT NOT NULL DEFAULT '',
			gear_rig             TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS tackle_items (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name     TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			notes    TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS species_tackle (
			species_id     TEXT NOT NULL REFERENCES species_rules(species_id) ON DELETE CASCADE,
			tackle_item_id INTEGER NOT NULL REFERENCES tackle_items(id) ON DELETE CASCADE,
			priority       INTEGER NOT NULL,
			PRIMARY KEY (species_id, tackle_item_id)
		);

		CREATE TABLE IF NOT EXISTS saved_locations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			region      TEXT NOT NULL DEFAULT '',
			state       TEXT NOT NULL DEFAULT '',
			lat         REAL NOT NULL,
			lng         REAL NOT NULL,
			timezone    TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			UNIQUE (name, state)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}
