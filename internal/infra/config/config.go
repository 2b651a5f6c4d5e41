package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers understood by the provider wiring.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Forecast   ForecastConfig   `yaml:"forecast"`
	TodaysBest TodaysBestConfig `yaml:"todaysBest"`
	Cache      CacheConfig      `yaml:"cache"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Storage    StorageConfig    `yaml:"storage"`
	Reference  ReferenceConfig  `yaml:"reference"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// ForecastConfig drives the forecast orchestrator.
type ForecastConfig struct {
	DefaultTimezone   string        `yaml:"defaultTimezone"`
	DefaultDays       int           `yaml:"defaultDays"`
	MaxDays           int           `yaml:"maxDays"`
	NearestLocationKm float64       `yaml:"nearestLocationKm"`
	CacheTTL          time.Duration `yaml:"cacheTtl"`
	AllowPastDates    bool          `yaml:"allowPastDates"`
}

// TodaysBestConfig controls the saved-location ranking.
type TodaysBestConfig struct {
	CacheTTL     time.Duration `yaml:"cacheTtl"`
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxLimit     int           `yaml:"maxLimit"`
	DefaultState string        `yaml:"defaultState"`
	MaxLocations int           `yaml:"maxLocations"`
	Concurrency  int           `yaml:"concurrency"`
}

// CacheConfig holds provider TTLs and sweep cadence.
type CacheConfig struct {
	WeatherTTL    time.Duration `yaml:"weatherTtl"`
	SunTTL        time.Duration `yaml:"sunTtl"`
	TidesTTL      time.Duration `yaml:"tidesTtl"`
	SweepOneIn    int           `yaml:"sweepOneIn"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// RateLimitConfig drives the fixed-window limiter.
type RateLimitConfig struct {
	Enabled   bool          `yaml:"enabled"`
	PerMinute int           `yaml:"perMinute"`
	PerHour   int           `yaml:"perHour"`
	Retention time.Duration `yaml:"retention"`
}

// UpstreamConfig contains weather, sun and tide provider settings.
type UpstreamConfig struct {
	OpenMeteoBaseURL string           `yaml:"openMeteoBaseUrl"`
	Timeout          time.Duration    `yaml:"timeout"`
	MaxRetries       int              `yaml:"maxRetries"`
	WorldTides       WorldTidesConfig `yaml:"worldTides"`
}

// WorldTidesConfig is optional; an empty key keeps tides synthetic.
type WorldTidesConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
}

// StorageConfig selects the backing store for cache, limiter and reference data.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
}

// SQLiteConfig points at the embedded database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig moves cache entries and rate windows into Valkey when enabled.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// ReferenceConfig locates the species, tackle and location seed applied at startup.
type ReferenceConfig struct {
	SeedPath string `yaml:"seedPath"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("DEFAULT_TIMEZONE"); v != "" {
		cfg.Forecast.DefaultTimezone = v
	}
	if v := os.Getenv("FORECAST_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Forecast.CacheTTL = parsed
		}
	}
	if v := os.Getenv("FORECAST_NEAREST_KM"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Forecast.NearestLocationKm = parsed
		}
	}
	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.Forecast.AllowPastDates = parseBool(v)
	}
	if v := os.Getenv("CACHE_TTL_WEATHER"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.WeatherTTL = parsed
		}
	}
	if v := os.Getenv("CACHE_TTL_SUN"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SunTTL = parsed
		}
	}
	if v := os.Getenv("CACHE_TTL_TIDES"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TidesTTL = parsed
		}
	}
	if v := os.Getenv("CACHE_SWEEP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SweepInterval = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerMinute = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_HOUR"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerHour = parsed
		}
	}
	if v := os.Getenv("OPEN_METEO_BASE_URL"); v != "" {
		cfg.Upstream.OpenMeteoBaseURL = v
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = parsed
		}
	}
	if v := os.Getenv("WORLDTIDES_API_KEY"); v != "" {
		cfg.Upstream.WorldTides.APIKey = v
	}
	if v := os.Getenv("WORLDTIDES_BASE_URL"); v != "" {
		cfg.Upstream.WorldTides.BaseURL = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Storage.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Storage.Valkey.Addr = v
	}
	if v := os.Getenv("REFERENCE_SEED_PATH"); v != "" {
		cfg.Reference.SeedPath = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Forecast: ForecastConfig{
			DefaultTimezone:   "Australia/Melbourne",
			DefaultDays:       7,
			MaxDays:           14,
			NearestLocationKm: 40,
			CacheTTL:          15 * time.Minute,
		},
		TodaysBest: TodaysBestConfig{
			CacheTTL:     45 * time.Minute,
			DefaultLimit: 5,
			MaxLimit:     20,
			DefaultState: "VIC",
			MaxLocations: 200,
			Concurrency:  4,
		},
		Cache: CacheConfig{
			WeatherTTL:    time.Hour,
			SunTTL:        7 * 24 * time.Hour,
			TidesTTL:      12 * time.Hour,
			SweepOneIn:    20,
			SweepInterval: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			PerMinute: 60,
			PerHour:   1000,
			Retention: 24 * time.Hour,
		},
		Upstream: UpstreamConfig{
			OpenMeteoBaseURL: "https://api.open-meteo.com/v1/forecast",
			Timeout:          10 * time.Second,
			MaxRetries:       2,
			WorldTides: WorldTidesConfig{
				BaseURL: "https://www.worldtides.info/api/v3",
			},
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
			SQLite: SQLiteConfig{
				Path: "data/fishcast.db",
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
			Valkey: ValkeyConfig{
				Prefix: "fishcast",
			},
		},
		Reference: ReferenceConfig{
			SeedPath: "configs/reference.yaml",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if _, err := time.LoadLocation(c.Forecast.DefaultTimezone); err != nil {
		return fmt.Errorf("forecast.defaultTimezone is not a known zone: %w", err)
	}
	if c.Forecast.MaxDays <= 0 {
		return errors.New("forecast.maxDays must be positive")
	}
	if c.Forecast.DefaultDays <= 0 || c.Forecast.DefaultDays > c.Forecast.MaxDays {
		return errors.New("forecast.defaultDays must be between 1 and forecast.maxDays")
	}
	if c.Forecast.NearestLocationKm <= 0 {
		return errors.New("forecast.nearestLocationKm must be positive")
	}
	if c.Forecast.CacheTTL <= 0 {
		return errors.New("forecast.cacheTtl must be positive")
	}
	if c.TodaysBest.MaxLimit <= 0 {
		return errors.New("todaysBest.maxLimit must be positive")
	}
	if c.TodaysBest.DefaultLimit <= 0 || c.TodaysBest.DefaultLimit > c.TodaysBest.MaxLimit {
		return errors.New("todaysBest.defaultLimit must be between 1 and todaysBest.maxLimit")
	}
	if c.Cache.WeatherTTL <= 0 || c.Cache.SunTTL <= 0 || c.Cache.TidesTTL <= 0 {
		return errors.New("cache ttls must be positive")
	}
	if c.Cache.SweepOneIn < 0 {
		return errors.New("cache.sweepOneIn cannot be negative")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.PerMinute <= 0 {
			return errors.New("rateLimit.perMinute must be positive")
		}
		if c.RateLimit.PerHour <= 0 {
			return errors.New("rateLimit.perHour must be positive")
		}
	}
	if strings.TrimSpace(c.Upstream.OpenMeteoBaseURL) == "" {
		return errors.New("upstream.openMeteoBaseUrl cannot be empty")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be positive")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.SQLite.Path) == "" {
			return errors.New("storage.sqlite.path cannot be empty when driver is sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.Postgres.DSN) == "" {
			return errors.New("storage.postgres.dsn cannot be empty when driver is postgres")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if c.Storage.Valkey.Enabled && strings.TrimSpace(c.Storage.Valkey.Addr) == "" {
		return errors.New("storage.valkey.addr cannot be empty when valkey is enabled")
	}
	return nil
}
