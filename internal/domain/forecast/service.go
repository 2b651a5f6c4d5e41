package forecast

import (
	"context"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/yanqian/fishcast/internal/domain/cache"
	"github.com/yanqian/fishcast/internal/domain/location"
	"github.com/yanqian/fishcast/internal/domain/ratelimit"
	apperrors "github.com/yanqian/fishcast/pkg/errors"
	"github.com/yanqian/fishcast/pkg/util"
)

// Rate limiter endpoint names.
const (
	EndpointForecast   = "forecast"
	EndpointTodaysBest = "todays_best"
)

const (
	unknownLocationName = "Unknown Location"
	noNearbyWarning     = "No nearby saved location; using coordinates only"
)

// Service exposes forecast assembly and the saved-location ranking.
type Service interface {
	Forecast(ctx context.Context, req Request) (Response, error)
	TodaysBest(ctx context.Context, req TodaysBestRequest) (TodaysBestResponse, error)
}

type service struct {
	cfg         Config
	fetcher     *Fetcher
	reference   ReferenceRepository
	locations   location.Repository
	cache       Cache
	limiter     RateLimiter
	synth       *TideSynthesizer
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
	sweepChance func() bool
}

// NewService wires up the forecast domain.
func NewService(
	cfg Config,
	fetcher *Fetcher,
	reference ReferenceRepository,
	locations location.Repository,
	c Cache,
	limiter RateLimiter,
	synth *TideSynthesizer,
	logger *slog.Logger,
) Service {
	return &service{
		cfg:         cfg,
		fetcher:     fetcher,
		reference:   reference,
		locations:   locations,
		cache:       c,
		limiter:     limiter,
		synth:       synth,
		validate:    validator.New(),
		logger:      logger.With("component", "forecast.service"),
		now:         util.NowUTC,
		sweepChance: oneInChance(cfg.SweepOneIn),
	}
}

type batches struct {
	weather []WeatherDay
	sun     []SunTimes
	tides   TideBatch
}

func (s *service) Forecast(ctx context.Context, req Request) (Response, error) {
	q, err := s.normalize(&req)
	if err != nil {
		return Response{}, err
	}
	if err := s.checkLimit(ctx, req.ClientID, EndpointForecast); err != nil {
		return Response{}, err
	}

	month := int(s.now().In(q.Location).Month())
	rules, err := s.reference.ActiveSpeciesRules(ctx, month)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeDataUnavailable, "species reference data unavailable", err)
	}

	key := forecastKey(q, len(rules))
	if !req.Refresh {
		var cached Response
		if s.cache.GetJSON(ctx, key, &cached) {
			cached.Cached = true
			return cached, nil
		}
	}

	summary, warning := s.resolveLocation(ctx, q.Coord)
	s.maybeSweep(ctx)

	b, err := s.fetchAll(ctx, q)
	if err != nil {
		return Response{}, err
	}

	days := s.assembleDays(ctx, q, b, rules, req.TargetSpecies)
	s.logger.Info("forecast assembled",
		"lat", q.Coord.Lat,
		"lng", q.Coord.Lng,
		"start", q.StartDate(),
		"requested_days", q.Days,
		"days", len(days),
		"mock_tides", b.tides.Mock,
	)

	resp := Response{
		Location: summary,
		Timezone: q.Timezone(),
		Forecast: days,
		Cached:   false,
		CachedAt: s.now().In(q.Location),
		Warning:  warning,
	}
	s.cache.SetJSON(ctx, key, resp, s.cfg.CacheTTL)
	return resp, nil
}

func (s *service) checkLimit(ctx context.Context, clientID, endpoint string) error {
	decision, err := s.limiter.CheckLimit(ctx, clientID, endpoint)
	if err != nil {
		s.logger.Warn("rate limiter unavailable, allowing request", "endpoint", endpoint, "error", err)
		return nil
	}
	if !decision.Allowed {
		return apperrors.Wrap(apperrors.CodeRateLimited, "rate limit exceeded", &ratelimit.ExceededError{RetryAfter: decision.RetryAfter})
	}
	return nil
}

func (s *service) resolveLocation(ctx context.Context, coord location.Coordinate) (LocationSummary, string) {
	summary := LocationSummary{Lat: coord.Lat, Lng: coord.Lng, Name: unknownLocationName}
	saved, err := s.locations.List(ctx, location.Filter{})
	if err != nil {
		s.logger.Warn("saved location lookup failed", "error", err)
		return summary, noNearbyWarning
	}
	match, ok := location.Nearest(saved, coord, s.cfg.NearestLocationKm)
	if !ok {
		return summary, noNearbyWarning
	}
	summary.Name = match.Location.Name
	if match.Location.Region != "" {
		region := match.Location.Region
		summary.Region = &region
	}
	return summary, ""
}

// maybeSweep clears expired cache entries in the background on a fraction of requests.
func (s *service) maybeSweep(ctx context.Context) {
	if s.sweepChance == nil || !s.sweepChance() {
		return
	}
	sweepCtx := context.WithoutCancel(ctx)
	go s.cache.ClearExpired(sweepCtx)
}

// fetchAll loads weather, sun and tides concurrently. In-flight fetches are
// detached from the caller's cancellation and bounded by the client timeouts.
func (s *service) fetchAll(ctx context.Context, q Query) (batches, error) {
	fetchCtx := context.WithoutCancel(ctx)
	var (
		b batches
		g errgroup.Group
	)
	g.Go(func() error {
		days, err := s.fetcher.Weather(fetchCtx, q)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDataUnavailable, "failed to fetch weather data", err)
		}
		b.weather = days
		return nil
	})
	g.Go(func() error {
		days, err := s.fetcher.Sun(fetchCtx, q)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDataUnavailable, "failed to fetch sun data", err)
		}
		b.sun = days
		return nil
	})
	g.Go(func() error {
		b.tides = s.fetcher.Tides(fetchCtx, q)
		return nil
	})
	if err := g.Wait(); err != nil {
		return batches{}, err
	}
	return b, nil
}

func (s *service) assembleDays(ctx context.Context, q Query, b batches, rules []SpeciesRule, targets []string) []Day {
	weatherByDate := make(map[string]WeatherDay, len(b.weather))
	for _, w := range b.weather {
		weatherByDate[w.Date] = w
	}
	sunByDate := make(map[string]SunTimes, len(b.sun))
	for _, st := range b.sun {
		sunByDate[st.Date] = st
	}
	tidesByDate := make(map[string]TideDay, len(b.tides.Days))
	for _, td := range b.tides.Days {
		tidesByDate[td.Date] = td
	}
	legacy := make(map[string]SpeciesRule, len(rules))
	for _, r := range rules {
		legacy[r.ID] = r
	}
	tackle := newTackleLookup(s.reference, s.logger)

	days := make([]Day, 0, q.Days)
	for i := 0; i < q.Days; i++ {
		dayStart := q.Start.AddDate(0, 0, i)
		date := dayStart.Format(dateLayout)

		weather, hasWeather := weatherByDate[date]
		sun, hasSun := sunByDate[date]
		if !hasWeather || !hasSun || !sun.Complete() {
			s.logger.Debug("skipping forecast day with missing data", "date", date, "weather", hasWeather, "sun", hasSun)
			continue
		}

		tides, ok := tidesByDate[date]
		if !ok || len(tides.Events) == 0 {
			tides = s.synth.Generate(q.Coord, dayStart, 1, q.Location)[0]
		}

		scores := ScoreDay(weather, sun, tides, len(rules))
		species := RecommendSpecies(rules, weather, tides)
		gearFor := GearSpecies(targets, species)

		days = append(days, Day{
			Date:               date,
			Score:              scores.Composite,
			Weather:            weather,
			Sun:                sun,
			Tides:              tides,
			BestBiteWindows:    BestBiteWindows(sun, tides),
			RecommendedSpecies: species,
			GearSuggestions:    BuildGear(gearFor, tackle.get(ctx, gearFor), legacy),
			Reasons:            BuildReasons(scores, weather, tides),
		})
	}
	return days
}

// tackleLookup memoizes catalog reads per species set within one request.
type tackleLookup struct {
	repo   ReferenceRepository
	logger *slog.Logger
	seen   map[string][]SpeciesTackle
}

func newTackleLookup(repo ReferenceRepository, logger *slog.Logger) *tackleLookup {
	return &tackleLookup{repo: repo, logger: logger, seen: make(map[string][]SpeciesTackle)}
}

func (t *tackleLookup) get(ctx context.Context, speciesIDs []string) []SpeciesTackle {
	if len(speciesIDs) == 0 {
		return nil
	}
	key := strings.Join(speciesIDs, "\x00")
	if links, ok := t.seen[key]; ok {
		return links
	}
	links, err := t.repo.TackleForSpecies(ctx, speciesIDs)
	if err != nil {
		t.logger.Warn("tackle catalog lookup failed, using legacy gear", "error", err)
		links = nil
	}
	t.seen[key] = links
	return links
}

func forecastKey(q Query, rulesVersion int) cache.Key {
	return cache.NewKey(ProviderForecast,
		formatCoord(q.Coord.Lat),
		formatCoord(q.Coord.Lng),
		q.StartDate(),
		strconv.Itoa(q.Days),
		q.Timezone(),
		strconv.Itoa(rulesVersion),
	)
}

func oneInChance(n int) func() bool {
	if n <= 0 {
		return nil
	}
	return func() bool { return rand.Intn(n) == 0 }
}
