package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fishcast/internal/domain/cache"
	"github.com/yanqian/fishcast/internal/domain/location"
	"github.com/yanqian/fishcast/internal/domain/ratelimit"
	apperrors "github.com/yanqian/fishcast/pkg/errors"
)

var errUpstream = errors.New("upstream down")

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sweeps  chan struct{}
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte), sweeps: make(chan struct{}, 8)}
}

func (c *memoryCache) GetJSON(_ context.Context, key cache.Key, dst any) bool {
	c.mu.Lock()
	payload, ok := c.entries[key.String()]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(payload, dst) == nil
}

func (c *memoryCache) SetJSON(_ context.Context, key cache.Key, v any, _ time.Duration) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key.String()] = payload
	c.mu.Unlock()
}

func (c *memoryCache) ClearExpired(context.Context) {
	c.sweeps <- struct{}{}
}

func (c *memoryCache) has(provider string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, provider+"/") {
			return true
		}
	}
	return false
}

type stubWeather struct {
	mu        sync.Mutex
	calls     int
	err       error
	skip      map[string]bool
	failLat   map[float64]bool
	windByLat map[float64]float64
}

func (s *stubWeather) DailyWeather(_ context.Context, q Query) ([]WeatherDay, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.failLat[q.Coord.Lat] {
		return nil, errUpstream
	}
	wind := 8.0
	if w, ok := s.windByLat[q.Coord.Lat]; ok {
		wind = w
	}
	days := make([]WeatherDay, 0, q.Days)
	for i := 0; i < q.Days; i++ {
		date := q.Start.AddDate(0, 0, i).Format(dateLayout)
		if s.skip[date] {
			continue
		}
		days = append(days, WeatherDay{
			Date:           date,
			TemperatureMax: 26,
			TemperatureMin: 16,
			WindSpeed:      wind,
			WindDirection:  180,
			Precipitation:  0,
			CloudCover:     20,
			Conditions:     ConditionClear,
		})
	}
	return days, nil
}

func (s *stubWeather) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSun struct {
	err        error
	incomplete map[string]bool
}

func (s *stubSun) DailySun(_ context.Context, q Query) ([]SunTimes, error) {
	if s.err != nil {
		return nil, s.err
	}
	days := make([]SunTimes, 0, q.Days)
	for i := 0; i < q.Days; i++ {
		day := q.Start.AddDate(0, 0, i)
		date := day.Format(dateLayout)
		if s.incomplete[date] {
			days = append(days, SunTimes{Date: date})
			continue
		}
		sunrise := time.Date(day.Year(), day.Month(), day.Day(), 6, 0, 0, 0, q.Location)
		sunset := time.Date(day.Year(), day.Month(), day.Day(), 20, 45, 0, 0, q.Location)
		days = append(days, SunTimes{
			Date:    date,
			Sunrise: sunrise,
			Sunset:  sunset,
			Dawn:    sunrise.Add(-30 * time.Minute),
			Dusk:    sunset.Add(30 * time.Minute),
		})
	}
	return days, nil
}

type stubTides struct {
	samples []TideSample
	err     error
}

func (s *stubTides) Heights(context.Context, Query) ([]TideSample, error) {
	return s.samples, s.err
}

type stubReference struct {
	rules     []SpeciesRule
	tackle    []SpeciesTackle
	err       error
	tackleErr error
}

func (r *stubReference) ActiveSpeciesRules(_ context.Context, month int) ([]SpeciesRule, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]SpeciesRule, 0, len(r.rules))
	for _, rule := range r.rules {
		if rule.ActiveIn(month) {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *stubReference) TackleForSpecies(_ context.Context, ids []string) ([]SpeciesTackle, error) {
	if r.tackleErr != nil {
		return nil, r.tackleErr
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]SpeciesTackle, 0)
	for _, link := range r.tackle {
		if wanted[link.SpeciesID] {
			out = append(out, link)
		}
	}
	return out, nil
}

type stubLocations struct {
	saved []location.Saved
	err   error
}

func (s *stubLocations) List(_ context.Context, f location.Filter) ([]location.Saved, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]location.Saved, 0, len(s.saved))
	for _, spot := range s.saved {
		if f.State != "" && spot.State != f.State {
			continue
		}
		if f.Region != "" && spot.Region != f.Region {
			continue
		}
		out = append(out, spot)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

type stubLimiter struct {
	mu       sync.Mutex
	calls    int
	decision ratelimit.Decision
	err      error
}

func (l *stubLimiter) CheckLimit(context.Context, string, string) (ratelimit.Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return ratelimit.Decision{}, l.err
	}
	return l.decision, nil
}

type fixture struct {
	svc       *service
	cache     *memoryCache
	weather   *stubWeather
	sun       *stubSun
	reference *stubReference
	locations *stubLocations
	limiter   *stubLimiter
}

// testNow is 11:30 on 2025-01-10 in Melbourne.
var testNow = time.Date(2025, 1, 10, 0, 30, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		DefaultTimezone:   "Australia/Melbourne",
		DefaultDays:       7,
		MaxDays:           14,
		NearestLocationKm: 40,
		CacheTTL:          15 * time.Minute,
		TodaysBest: TodaysBestConfig{
			CacheTTL:     45 * time.Minute,
			DefaultLimit: 5,
			MaxLimit:     20,
			DefaultState: "VIC",
			MaxLocations: 200,
			Concurrency:  2,
		},
	}
}

func testRules() []SpeciesRule {
	return []SpeciesRule{
		{ID: "flathead", Name: "Sand Flathead", SeasonStartMonth: 10, SeasonEndMonth: 4, PreferredTideState: TideFalling, PreferredWindMax: 20, GearLineWeight: "6-10lb"},
		{ID: "snapper", Name: "Snapper", SeasonStartMonth: 9, SeasonEndMonth: 5, PreferredTideState: TideRising, PreferredWindMax: 20, GearBait: "pilchards, squid", GearLineWeight: "15-20lb", GearRig: "running sinker"},
		{ID: "whiting", Name: "King George Whiting", SeasonStartMonth: 1, SeasonEndMonth: 12, PreferredTideState: TideAny, PreferredWindMax: 15},
		{ID: "salmon", Name: "Australian Salmon", SeasonStartMonth: 5, SeasonEndMonth: 8, PreferredTideState: TideAny, PreferredWindMax: 25},
	}
}

func testTackle() []SpeciesTackle {
	return []SpeciesTackle{
		{SpeciesID: "whiting", Priority: 1, Item: TackleItem{ID: 1, Name: "Pipis", Category: "bait"}},
		{SpeciesID: "whiting", Priority: 2, Item: TackleItem{ID: 2, Name: "Squid strips", Category: "bait"}},
		{SpeciesID: "snapper", Priority: 1, Item: TackleItem{ID: 3, Name: "Pilchards", Category: "bait"}},
		{SpeciesID: "snapper", Priority: 1, Item: TackleItem{ID: 4, Name: "5in jerkbait", Category: "soft_plastics"}},
	}
}

func testLocations() []location.Saved {
	return []location.Saved{
		{ID: 1, Name: "St Kilda Pier", Region: "Port Phillip", State: "VIC", Lat: -37.8636, Lng: 144.9653, Timezone: "Australia/Melbourne"},
		{ID: 2, Name: "Portsea Pier", Region: "Mornington Peninsula", State: "VIC", Lat: -38.3185, Lng: 144.7117, Timezone: "Australia/Melbourne"},
		{ID: 3, Name: "San Remo Jetty", Region: "Western Port", State: "VIC", Lat: -38.5226, Lng: 145.3682},
		{ID: 4, Name: "Merimbula Wharf", Region: "Sapphire Coast", State: "NSW", Lat: -36.8969, Lng: 149.9076, Timezone: "Australia/Sydney"},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cache:     newMemoryCache(),
		weather:   &stubWeather{},
		sun:       &stubSun{},
		reference: &stubReference{rules: testRules(), tackle: testTackle()},
		locations: &stubLocations{saved: testLocations()},
		limiter:   &stubLimiter{decision: ratelimit.Decision{Allowed: true}},
	}
	f.build(nil, testConfig())
	return f
}

// build rewires the service, for tests that swap the tide provider or config.
func (f *fixture) build(tides TideProvider, cfg Config) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	synth := NewTideSynthesizer(&fixedRand{})
	fetcher := NewFetcher(FetcherConfig{WeatherTTL: time.Hour, SunTTL: time.Hour, TidesTTL: time.Hour},
		f.weather, f.sun, tides, f.cache, synth, logger)
	svc := NewService(cfg, fetcher, f.reference, f.locations, f.cache, f.limiter, synth, logger).(*service)
	svc.now = func() time.Time { return testNow }
	svc.sweepChance = func() bool { return false }
	f.svc = svc
}

func stKildaRequest() Request {
	return Request{ClientID: "203.0.113.7", Lat: -37.8636, Lng: 144.9631, Days: intPtr(7)}
}

func intPtr(v int) *int {
	return &v
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.IsCode(err, code), "expected code %s, got %v", code, err)
}
