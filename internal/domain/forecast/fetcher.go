package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/yanqian/fishcast/internal/domain/cache"
)

// Cache providers.
const (
	ProviderWeather    = "weather"
	ProviderSun        = "sun"
	ProviderTides      = "tides"
	ProviderForecast   = "forecast"
	ProviderTodaysBest = "todays_best"
)

// Fetcher wraps the upstream providers with the payload cache. Weather and
// sun failures are hard errors; tides always degrade to the synthetic model.
type Fetcher struct {
	cfg     FetcherConfig
	weather WeatherProvider
	sun     SunProvider
	tides   TideProvider
	cache   Cache
	synth   *TideSynthesizer
	logger  *slog.Logger
}

// NewFetcher wires the fetchers. tides may be nil when no tide provider is configured.
func NewFetcher(cfg FetcherConfig, weather WeatherProvider, sun SunProvider, tides TideProvider, c Cache, synth *TideSynthesizer, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		cfg:     cfg,
		weather: weather,
		sun:     sun,
		tides:   tides,
		cache:   c,
		synth:   synth,
		logger:  logger.With("component", "forecast.fetcher"),
	}
}

// Weather returns the query's weather days, from cache when possible.
func (f *Fetcher) Weather(ctx context.Context, q Query) ([]WeatherDay, error) {
	key := rangeKey(ProviderWeather, q)
	var days []WeatherDay
	if f.cache.GetJSON(ctx, key, &days) {
		return days, nil
	}
	days, err := f.weather.DailyWeather(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch weather: %w", err)
	}
	f.cache.SetJSON(ctx, key, days, f.cfg.WeatherTTL)
	return days, nil
}

// Sun returns the query's sun times, from cache when possible.
func (f *Fetcher) Sun(ctx context.Context, q Query) ([]SunTimes, error) {
	key := rangeKey(ProviderSun, q)
	var days []SunTimes
	if f.cache.GetJSON(ctx, key, &days) {
		return days, nil
	}
	days, err := f.sun.DailySun(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch sun: %w", err)
	}
	f.cache.SetJSON(ctx, key, days, f.cfg.SunTTL)
	return days, nil
}

// Tides returns tide days for the query. It never fails.
func (f *Fetcher) Tides(ctx context.Context, q Query) TideBatch {
	key := rangeKey(ProviderTides, q)
	var batch TideBatch
	if f.cache.GetJSON(ctx, key, &batch) {
		return batch
	}

	if f.tides != nil {
		samples, err := f.tides.Heights(ctx, q)
		if err != nil {
			f.logger.Warn("tide provider failed, using synthetic tides", "error", err)
		} else if days := BucketTideSamples(samples, q.Location); len(days) > 0 {
			batch = TideBatch{Days: days}
			f.cache.SetJSON(ctx, key, batch, f.cfg.TidesTTL)
			return batch
		}
	}

	batch = TideBatch{
		Days: f.synth.Generate(q.Coord, q.Start, q.Days, q.Location),
		Mock: true,
	}
	f.cache.SetJSON(ctx, key, batch, f.cfg.TidesTTL)
	return batch
}

func rangeKey(provider string, q Query) cache.Key {
	return cache.NewKey(provider,
		formatCoord(q.Coord.Lat),
		formatCoord(q.Coord.Lng),
		q.StartDate(),
		strconv.Itoa(q.Days),
	)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
