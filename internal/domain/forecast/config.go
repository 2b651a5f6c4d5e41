package forecast

import "time"

// Config holds runtime knobs for the forecast service.
type Config struct {
	DefaultTimezone   string
	DefaultDays       int
	MaxDays           int
	NearestLocationKm float64
	CacheTTL          time.Duration
	AllowPastDates    bool
	SweepOneIn        int
	TodaysBest        TodaysBestConfig
}

// TodaysBestConfig controls the saved-location ranking.
type TodaysBestConfig struct {
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
	DefaultState string
	MaxLocations int
	Concurrency  int
}

// FetcherConfig holds per-provider cache lifetimes.
type FetcherConfig struct {
	WeatherTTL time.Duration
	SunTTL     time.Duration
	TidesTTL   time.Duration
}
