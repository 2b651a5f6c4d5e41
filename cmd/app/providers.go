package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/fishcast/internal/domain/cache"
	"github.com/yanqian/fishcast/internal/domain/forecast"
	"github.com/yanqian/fishcast/internal/domain/location"
	"github.com/yanqian/fishcast/internal/domain/ratelimit"
	"github.com/yanqian/fishcast/internal/infra/cachestore"
	"github.com/yanqian/fishcast/internal/infra/config"
	"github.com/yanqian/fishcast/internal/infra/postgres"
	"github.com/yanqian/fishcast/internal/infra/ratestore"
	"github.com/yanqian/fishcast/internal/infra/refdata"
	"github.com/yanqian/fishcast/internal/infra/scheduler"
	"github.com/yanqian/fishcast/internal/infra/sqlite"
	"github.com/yanqian/fishcast/internal/infra/tides/worldtides"
	"github.com/yanqian/fishcast/internal/infra/upstream"
	"github.com/yanqian/fishcast/internal/infra/weather/openmeteo"
)

func provideForecastConfig(cfg *config.Config) forecast.Config {
	return forecast.Config{
		DefaultTimezone:   cfg.Forecast.DefaultTimezone,
		DefaultDays:       cfg.Forecast.DefaultDays,
		MaxDays:           cfg.Forecast.MaxDays,
		NearestLocationKm: cfg.Forecast.NearestLocationKm,
		CacheTTL:          cfg.Forecast.CacheTTL,
		AllowPastDates:    cfg.Forecast.AllowPastDates,
		SweepOneIn:        cfg.Cache.SweepOneIn,
		TodaysBest: forecast.TodaysBestConfig{
			CacheTTL:     cfg.TodaysBest.CacheTTL,
			DefaultLimit: cfg.TodaysBest.DefaultLimit,
			MaxLimit:     cfg.TodaysBest.MaxLimit,
			DefaultState: cfg.TodaysBest.DefaultState,
			MaxLocations: cfg.TodaysBest.MaxLocations,
			Concurrency:  cfg.TodaysBest.Concurrency,
		},
	}
}

func provideFetcherConfig(cfg *config.Config) forecast.FetcherConfig {
	return forecast.FetcherConfig{
		WeatherTTL: cfg.Cache.WeatherTTL,
		SunTTL:     cfg.Cache.SunTTL,
		TidesTTL:   cfg.Cache.TidesTTL,
	}
}

func provideRateLimitConfig(cfg *config.Config) ratelimit.Config {
	return ratelimit.Config{
		Enabled:   cfg.RateLimit.Enabled,
		PerMinute: cfg.RateLimit.PerMinute,
		PerHour:   cfg.RateLimit.PerHour,
		Retention: cfg.RateLimit.Retention,
	}
}

// backends holds the stores selected by storage.driver.
type backends struct {
	cacheStore  cache.Store
	windowStore ratelimit.WindowStore
	reference   forecast.ReferenceRepository
	locations   location.Repository
}

// referenceStore is implemented by every repository that can be seeded.
type referenceStore interface {
	forecast.ReferenceRepository
	location.Repository
	refdata.Writer
}

func provideBackends(cfg *config.Config, logger *slog.Logger) (*backends, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, postgres.PoolConfig{
			DSN:      cfg.Storage.Postgres.DSN,
			MaxConns: cfg.Storage.Postgres.MaxConns,
			MinConns: cfg.Storage.Postgres.MinConns,
		})
		if err != nil {
			logger.Error("postgres unavailable, using memory storage", "error", err)
			return memoryBackends(ctx, cfg, logger)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		b, err := postgresBackends(ctx, cfg, pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("postgres storage enabled")
		return b, pool.Close, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { _ = db.Close() }
		if err := sqlite.Migrate(ctx, db); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		b, err := sqliteBackends(ctx, cfg, db, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("sqlite storage enabled", "path", cfg.Storage.SQLite.Path)
		return b, cleanup, nil
	default:
		return memoryBackends(ctx, cfg, logger)
	}
}

func memoryBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, func(), error) {
	repo := refdata.NewMemoryRepository()
	if err := seedReference(ctx, cfg, repo, logger); err != nil {
		return nil, nil, err
	}
	return &backends{
		cacheStore:  cachestore.NewMemoryStore(),
		windowStore: ratestore.NewMemoryStore(),
		reference:   repo,
		locations:   repo,
	}, func() {}, nil
}

func postgresBackends(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*backends, error) {
	repo := postgres.NewReferenceRepository(pool)
	if err := seedReference(ctx, cfg, repo, logger); err != nil {
		return nil, err
	}
	return &backends{
		cacheStore:  postgres.NewCacheStore(pool),
		windowStore: postgres.NewWindowStore(pool),
		reference:   repo,
		locations:   repo,
	}, nil
}

func sqliteBackends(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (*backends, error) {
	repo := sqlite.NewReferenceRepository(db)
	if err := seedReference(ctx, cfg, repo, logger); err != nil {
		return nil, err
	}
	return &backends{
		cacheStore:  sqlite.NewCacheStore(db),
		windowStore: sqlite.NewWindowStore(db),
		reference:   repo,
		locations:   repo,
	}, nil
}

// seedReference applies the reference seed file. A missing file leaves the
// store as it is; a malformed one fails startup.
func seedReference(ctx context.Context, cfg *config.Config, repo referenceStore, logger *slog.Logger) error {
	path := strings.TrimSpace(cfg.Reference.SeedPath)
	if path == "" {
		return nil
	}
	seed, err := refdata.LoadSeed(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("reference seed file not found", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, repo); err != nil {
		return fmt.Errorf("apply reference seed: %w", err)
	}
	logger.Info("reference data seeded",
		"path", path,
		"species", len(seed.Species),
		"tackle", len(seed.Tackle),
		"locations", len(seed.Locations),
	)
	return nil
}

// provideValkeyClient returns nil when valkey is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	if !cfg.Storage.Valkey.Enabled {
		return nil, func() {}
	}
	opt, err := buildValkeyOptions(cfg.Storage.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, keeping driver stores", "error", err)
		return nil, func() {}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, keeping driver stores", "error", err)
		return nil, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, keeping driver stores", "error", err)
		client.Close()
		return nil, func() {}
	}
	logger.Info("valkey enabled for cache and rate windows", "addr", cfg.Storage.Valkey.Addr)
	return client, client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideCacheStore(cfg *config.Config, b *backends, client valkey.Client) cache.Store {
	if client != nil {
		return cachestore.NewValkeyStore(client, cfg.Storage.Valkey.Prefix)
	}
	return b.cacheStore
}

func provideWindowStore(cfg *config.Config, b *backends, client valkey.Client) ratelimit.WindowStore {
	if client != nil {
		return ratestore.NewValkeyStore(client, cfg.Storage.Valkey.Prefix)
	}
	return b.windowStore
}

func provideReferenceRepository(b *backends) forecast.ReferenceRepository {
	return b.reference
}

func provideLocationRepository(b *backends) location.Repository {
	return b.locations
}

func provideWeatherClient(cfg *config.Config, logger *slog.Logger) *openmeteo.Client {
	http := upstream.NewClient(upstream.Config{
		Name:       "open-meteo",
		Timeout:    cfg.Upstream.Timeout,
		MaxRetries: cfg.Upstream.MaxRetries,
	}, logger)
	return openmeteo.NewClient(cfg.Upstream.OpenMeteoBaseURL, http)
}

// provideTideProvider returns nil without an API key so tides stay synthetic.
func provideTideProvider(cfg *config.Config, logger *slog.Logger) forecast.TideProvider {
	key := strings.TrimSpace(cfg.Upstream.WorldTides.APIKey)
	if key == "" {
		logger.Info("worldtides api key not set, using synthetic tides")
		return nil
	}
	http := upstream.NewClient(upstream.Config{
		Name:       "worldtides",
		Timeout:    cfg.Upstream.Timeout,
		MaxRetries: cfg.Upstream.MaxRetries,
	}, logger)
	return worldtides.NewClient(cfg.Upstream.WorldTides.BaseURL, key, http)
}

func provideTideSynthesizer() *forecast.TideSynthesizer {
	return forecast.NewTideSynthesizer(nil)
}

func provideMaintenance(cfg *config.Config, c *cache.Cache, limiter *ratelimit.Limiter, logger *slog.Logger) *scheduler.Maintenance {
	return scheduler.New(c, limiter, cfg.Cache.SweepInterval, logger)
}
