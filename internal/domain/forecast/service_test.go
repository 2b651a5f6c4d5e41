package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fishcast/internal/domain/ratelimit"
	apperrors "github.com/yanqian/fishcast/pkg/errors"
)

func TestForecastAssemblesRequestedDays(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Forecast(context.Background(), stKildaRequest())
	require.NoError(t, err)

	require.False(t, resp.Cached)
	require.Equal(t, "Australia/Melbourne", resp.Timezone)
	require.Equal(t, "St Kilda Pier", resp.Location.Name)
	require.NotNil(t, resp.Location.Region)
	require.Equal(t, "Port Phillip", *resp.Location.Region)
	require.Empty(t, resp.Warning)
	require.True(t, testNow.Equal(resp.CachedAt))

	require.Len(t, resp.Forecast, 7)
	for i, day := range resp.Forecast {
		want := time.Date(2025, 1, 10+i, 0, 0, 0, 0, time.UTC).Format(dateLayout)
		require.Equal(t, want, day.Date)
		require.Equal(t, want, day.Tides.Date)
		require.True(t, day.Tides.Estimated)
		require.GreaterOrEqual(t, day.Score, 0)
		require.LessOrEqual(t, day.Score, 100)
		require.Equal(t, ScoreDay(day.Weather, day.Sun, day.Tides, 3).Composite, day.Score)
		require.LessOrEqual(t, len(day.RecommendedSpecies), 3)
		require.True(t, strings.HasSuffix(day.Reasons[1].Detail, "(estimated tides)"))
	}

	first := resp.Forecast[0]
	require.Len(t, first.Tides.Events, 4)
	require.NotEmpty(t, first.BestBiteWindows)
	require.Equal(t, []string{"snapper", "whiting", "flathead"}, speciesIDs(first.RecommendedSpecies))
	require.Equal(t, 0.95, first.RecommendedSpecies[0].Confidence)
	require.Equal(t, []string{"Pilchards"}, first.GearSuggestions.Bait)
	require.Equal(t, []string{"5in jerkbait"}, first.GearSuggestions.Lure)
	require.Equal(t, "15-20lb", first.GearSuggestions.LineWeight)
	require.Equal(t, "running sinker", first.GearSuggestions.Rig)
	require.Equal(t, 1, f.limiter.calls)
}

func TestForecastServesRepeatFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Forecast(ctx, stKildaRequest())
	require.NoError(t, err)
	second, err := f.svc.Forecast(ctx, stKildaRequest())
	require.NoError(t, err)

	require.False(t, first.Cached)
	require.True(t, second.Cached)
	require.Equal(t, 1, f.weather.callCount())

	firstJSON, err := json.Marshal(first.Forecast)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Forecast)
	require.NoError(t, err)
	require.Equal(t, string(firstJSON), string(secondJSON))
	require.True(t, first.CachedAt.Equal(second.CachedAt))
	require.Equal(t, 2, f.limiter.calls)
}

func TestForecastRefreshBypassesForecastCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Forecast(ctx, stKildaRequest())
	require.NoError(t, err)

	req := stKildaRequest()
	req.Refresh = true
	resp, err := f.svc.Forecast(ctx, req)
	require.NoError(t, err)
	require.False(t, resp.Cached)
	// provider payloads are still served from their own cache
	require.Equal(t, 1, f.weather.callCount())
}

func TestForecastSkipsDaysWithMissingData(t *testing.T) {
	f := newFixture(t)
	f.weather.skip = map[string]bool{"2025-01-12": true}
	f.sun.incomplete = map[string]bool{"2025-01-14": true}

	resp, err := f.svc.Forecast(context.Background(), stKildaRequest())
	require.NoError(t, err)
	require.Len(t, resp.Forecast, 5)
	for _, day := range resp.Forecast {
		require.NotEqual(t, "2025-01-12", day.Date)
		require.NotEqual(t, "2025-01-14", day.Date)
	}
}

func TestForecastUpstreamFailures(t *testing.T) {
	t.Run("weather", func(t *testing.T) {
		f := newFixture(t)
		f.weather.err = errUpstream
		_, err := f.svc.Forecast(context.Background(), stKildaRequest())
		requireCode(t, err, apperrors.CodeDataUnavailable)
		require.ErrorIs(t, err, errUpstream)
		require.False(t, f.cache.has(ProviderForecast))
	})
	t.Run("sun", func(t *testing.T) {
		f := newFixture(t)
		f.sun.err = errUpstream
		_, err := f.svc.Forecast(context.Background(), stKildaRequest())
		requireCode(t, err, apperrors.CodeDataUnavailable)
	})
	t.Run("reference data", func(t *testing.T) {
		f := newFixture(t)
		f.reference.err = errors.New("db closed")
		_, err := f.svc.Forecast(context.Background(), stKildaRequest())
		requireCode(t, err, apperrors.CodeDataUnavailable)
		require.Zero(t, f.weather.callCount())
	})
}

func TestForecastUsesProviderTidesWhenAvailable(t *testing.T) {
	f := newFixture(t)
	f.build(&stubTides{samples: []TideSample{
		{Time: time.Date(2025, 1, 9, 20, 0, 0, 0, time.UTC), Height: 1.2},
		{Time: time.Date(2025, 1, 10, 2, 0, 0, 0, time.UTC), Height: -0.3},
	}}, testConfig())

	resp, err := f.svc.Forecast(context.Background(), stKildaRequest())
	require.NoError(t, err)
	require.Len(t, resp.Forecast, 7)

	first := resp.Forecast[0].Tides
	require.False(t, first.Estimated)
	require.Len(t, first.Events, 2)
	require.Equal(t, TideHigh, first.Events[0].Type)
	require.False(t, strings.HasSuffix(resp.Forecast[0].Reasons[1].Detail, "(estimated tides)"))

	require.True(t, resp.Forecast[1].Tides.Estimated)
	require.Len(t, resp.Forecast[1].Tides.Events, 4)
}

func TestForecastFallsBackWhenTideProviderFails(t *testing.T) {
	f := newFixture(t)
	f.build(&stubTides{err: errUpstream}, testConfig())

	resp, err := f.svc.Forecast(context.Background(), stKildaRequest())
	require.NoError(t, err)
	for _, day := range resp.Forecast {
		require.True(t, day.Tides.Estimated)
	}
}

func TestForecastRateLimited(t *testing.T) {
	f := newFixture(t)
	f.limiter.decision = ratelimit.Decision{Allowed: false, RetryAfter: 40 * time.Second}

	_, err := f.svc.Forecast(context.Background(), stKildaRequest())
	requireCode(t, err, apperrors.CodeRateLimited)

	var exceeded *ratelimit.ExceededError
	require.ErrorAs(t, err, &exceeded)
	require.Equal(t, 40*time.Second, exceeded.RetryAfter)
	require.Zero(t, f.weather.callCount())
}

func TestForecastLimiterFailureAllowsRequest(t *testing.T) {
	f := newFixture(t)
	f.limiter.err = errors.New("store offline")

	resp, err := f.svc.Forecast(context.Background(), stKildaRequest())
	require.NoError(t, err)
	require.Len(t, resp.Forecast, 7)
}

func TestForecastValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		message string
	}{
		{name: "latitude out of range", mutate: func(r *Request) { r.Lat = 91 }, message: "lat must be a number between -90 and 90"},
		{name: "longitude out of range", mutate: func(r *Request) { r.Lng = -180.5 }, message: "lng must be a number between -180 and 180"},
		{name: "not a number", mutate: func(r *Request) { r.Lat = math.NaN() }, message: "lat and lng must be finite numbers"},
		{name: "too many days", mutate: func(r *Request) { r.Days = intPtr(15) }, message: "days must be between 1 and 14"},
		{name: "zero days", mutate: func(r *Request) { r.Days = intPtr(0) }, message: "days must be between 1 and 14"},
		{name: "negative days", mutate: func(r *Request) { r.Days = intPtr(-2) }, message: "days must be between 1 and 14"},
		{name: "bad date", mutate: func(r *Request) { r.Start = "10/01/2025" }, message: "start must be formatted as YYYY-MM-DD"},
		{name: "unknown timezone", mutate: func(r *Request) { r.Timezone = "Mars/Olympus" }, message: "tz must be a valid IANA timezone"},
		{name: "species id too long", mutate: func(r *Request) { r.TargetSpecies = []string{strings.Repeat("x", 65)} }, message: "target_species contains an invalid id"},
		{name: "past start", mutate: func(r *Request) { r.Start = "2025-01-09" }, message: "start cannot be in the past"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			req := stKildaRequest()
			tt.mutate(&req)

			_, err := f.svc.Forecast(context.Background(), req)
			requireCode(t, err, apperrors.CodeInvalidInput)
			require.Contains(t, err.Error(), tt.message)
			require.Zero(t, f.limiter.calls)
		})
	}
}

func TestForecastDefaultsAndPastDatesInDevMode(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	cfg.AllowPastDates = true
	f.build(nil, cfg)

	req := stKildaRequest()
	req.Days = nil
	req.Start = "2025-01-08"
	req.Timezone = "Australia/Sydney"

	resp, err := f.svc.Forecast(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Australia/Sydney", resp.Timezone)
	require.Len(t, resp.Forecast, 7)
	require.Equal(t, "2025-01-08", resp.Forecast[0].Date)
}

func TestForecastWithoutNearbyLocation(t *testing.T) {
	f := newFixture(t)
	req := Request{Lat: -12.4634, Lng: 130.8456, Days: intPtr(2), Timezone: "Australia/Darwin"}

	resp, err := f.svc.Forecast(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Unknown Location", resp.Location.Name)
	require.Nil(t, resp.Location.Region)
	require.Equal(t, "No nearby saved location; using coordinates only", resp.Warning)
	require.Equal(t, -12.4634, resp.Location.Lat)
}

func TestForecastLocationLookupFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.locations.err = errors.New("timeout")

	resp, err := f.svc.Forecast(context.Background(), stKildaRequest())
	require.NoError(t, err)
	require.Equal(t, "Unknown Location", resp.Location.Name)
	require.NotEmpty(t, resp.Warning)
}

func TestForecastTargetSpeciesDrivesGear(t *testing.T) {
	f := newFixture(t)
	req := stKildaRequest()
	req.TargetSpecies = []string{" whiting ", ""}

	resp, err := f.svc.Forecast(context.Background(), req)
	require.NoError(t, err)

	gear := resp.Forecast[0].GearSuggestions
	require.Equal(t, []string{"Pipis"}, gear.Bait)
	require.Empty(t, gear.Lure)
	require.Equal(t, defaultLineWeight, gear.LineWeight)
	require.Len(t, gear.Tackle, 1)
	require.Len(t, gear.Tackle[0].Items, 2)
}

func TestForecastTackleFailureUsesLegacyGear(t *testing.T) {
	f := newFixture(t)
	f.reference.tackleErr = errors.New("catalog offline")

	resp, err := f.svc.Forecast(context.Background(), stKildaRequest())
	require.NoError(t, err)

	gear := resp.Forecast[0].GearSuggestions
	require.Equal(t, []string{"pilchards", "squid"}, gear.Bait)
	require.Empty(t, gear.Tackle)
}

func TestForecastTriggersBackgroundSweep(t *testing.T) {
	f := newFixture(t)
	f.svc.sweepChance = func() bool { return true }

	_, err := f.svc.Forecast(context.Background(), stKildaRequest())
	require.NoError(t, err)

	select {
	case <-f.cache.sweeps:
	case <-time.After(time.Second):
		t.Fatal("expected a cache sweep")
	}
}

func TestTodaysBestRanksSavedLocations(t *testing.T) {
	f := newFixture(t)
	f.weather.windByLat = map[float64]float64{-38.3185: 25}
	f.weather.failLat = map[float64]bool{-38.5226: true}

	resp, err := f.svc.TodaysBest(context.Background(), TodaysBestRequest{ClientID: "203.0.113.7"})
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.Equal(t, "2025-01-10", resp.Date)
	require.Equal(t, "Australia/Melbourne", resp.Timezone)

	require.Len(t, resp.Locations, 2)
	require.Equal(t, "St Kilda Pier", resp.Locations[0].Name)
	require.Equal(t, "Portsea Pier", resp.Locations[1].Name)
	require.Greater(t, resp.Locations[0].Score, resp.Locations[1].Score)
	require.Contains(t, resp.Locations[0].Why, "excellent weather")

	calls := f.weather.callCount()
	again, err := f.svc.TodaysBest(context.Background(), TodaysBestRequest{ClientID: "203.0.113.7"})
	require.NoError(t, err)
	require.True(t, again.Cached)
	require.Equal(t, resp.Locations, again.Locations)
	require.Equal(t, calls, f.weather.callCount())
}

func TestTodaysBestFilters(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.TodaysBest(context.Background(), TodaysBestRequest{State: "nsw"})
	require.NoError(t, err)
	require.Len(t, resp.Locations, 1)
	require.Equal(t, "Merimbula Wharf", resp.Locations[0].Name)

	resp, err = f.svc.TodaysBest(context.Background(), TodaysBestRequest{Region: "Western Port"})
	require.NoError(t, err)
	require.Len(t, resp.Locations, 1)
	require.Equal(t, int64(3), resp.Locations[0].ID)

	resp, err = f.svc.TodaysBest(context.Background(), TodaysBestRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, resp.Locations, 1)

	resp, err = f.svc.TodaysBest(context.Background(), TodaysBestRequest{Limit: 50})
	require.NoError(t, err)
	require.True(t, resp.Cached)
	require.Len(t, resp.Locations, 3)

	resp, err = f.svc.TodaysBest(context.Background(), TodaysBestRequest{State: "TAS"})
	require.NoError(t, err)
	require.NotNil(t, resp.Locations)
	require.Empty(t, resp.Locations)
}

func TestTodaysBestErrors(t *testing.T) {
	f := newFixture(t)
	f.limiter.decision = ratelimit.Decision{RetryAfter: time.Minute}
	_, err := f.svc.TodaysBest(context.Background(), TodaysBestRequest{})
	requireCode(t, err, apperrors.CodeRateLimited)

	f = newFixture(t)
	f.locations.err = errors.New("db closed")
	_, err = f.svc.TodaysBest(context.Background(), TodaysBestRequest{})
	requireCode(t, err, apperrors.CodeDataUnavailable)
}

func TestRankingWhy(t *testing.T) {
	require.Equal(t, "excellent weather, favorable tides, good bite windows, species in season",
		rankingWhy(Scores{Weather: 90, Tide: 80, DawnDusk: 60, Seasonality: 69}))
	require.Equal(t, "good weather", rankingWhy(Scores{Weather: 55, Tide: 50, DawnDusk: 20, Seasonality: 10}))
	require.Equal(t, "decent conditions", rankingWhy(Scores{}))
}

func speciesIDs(recs []SpeciesRecommendation) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}
