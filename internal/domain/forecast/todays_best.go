package forecast

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/fishcast/internal/domain/cache"
	"github.com/yanqian/fishcast/internal/domain/location"
	apperrors "github.com/yanqian/fishcast/pkg/errors"
	"github.com/yanqian/fishcast/pkg/util"
)

const defaultRankingConcurrency = 4

func (s *service) TodaysBest(ctx context.Context, req TodaysBestRequest) (TodaysBestResponse, error) {
	if err := s.checkLimit(ctx, req.ClientID, EndpointTodaysBest); err != nil {
		return TodaysBestResponse{}, err
	}

	loc, err := time.LoadLocation(s.cfg.DefaultTimezone)
	if err != nil {
		return TodaysBestResponse{}, apperrors.Wrap(apperrors.CodeInternal, "default timezone unavailable", err)
	}
	now := s.now().In(loc)
	today := now.Format(dateLayout)

	state := strings.ToUpper(strings.TrimSpace(req.State))
	if state == "" {
		state = s.cfg.TodaysBest.DefaultState
	}
	region := strings.TrimSpace(req.Region)
	speciesID := strings.TrimSpace(req.SpeciesID)
	limit := req.Limit
	if limit < 1 || limit > s.cfg.TodaysBest.MaxLimit {
		limit = s.cfg.TodaysBest.DefaultLimit
	}

	resp := TodaysBestResponse{
		Date:      today,
		Timezone:  loc.String(),
		Locations: []RankedLocation{},
		CachedAt:  now,
	}

	key := cache.NewKey(ProviderTodaysBest, today, state, region, speciesID)
	var cached []RankedLocation
	if s.cache.GetJSON(ctx, key, &cached) {
		resp.Locations = truncate(cached, limit)
		resp.Cached = true
		return resp, nil
	}

	saved, err := s.locations.List(ctx, location.Filter{State: state, Region: region, Limit: s.cfg.TodaysBest.MaxLocations})
	if err != nil {
		return TodaysBestResponse{}, apperrors.Wrap(apperrors.CodeDataUnavailable, "saved locations unavailable", err)
	}
	if len(saved) == 0 {
		return resp, nil
	}

	rules, err := s.reference.ActiveSpeciesRules(ctx, int(now.Month()))
	if err != nil {
		return TodaysBestResponse{}, apperrors.Wrap(apperrors.CodeDataUnavailable, "species reference data unavailable", err)
	}
	if speciesID != "" {
		rules = filterRules(rules, speciesID)
	}

	// The full ranking is cached so any limit can be served from it.
	ranked := s.rankLocations(ctx, saved, today, loc, len(rules))
	s.cache.SetJSON(ctx, key, ranked, s.cfg.TodaysBest.CacheTTL)

	resp.Locations = truncate(ranked, limit)
	return resp, nil
}

func truncate(ranked []RankedLocation, limit int) []RankedLocation {
	if len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// rankLocations scores each saved location for today. Locations whose weather
// or sun data is unavailable are left out.
func (s *service) rankLocations(ctx context.Context, saved []location.Saved, today string, fallback *time.Location, activeRules int) []RankedLocation {
	fetchCtx := context.WithoutCancel(ctx)
	results := make([]*RankedLocation, len(saved))

	var g errgroup.Group
	concurrency := s.cfg.TodaysBest.Concurrency
	if concurrency <= 0 {
		concurrency = defaultRankingConcurrency
	}
	g.SetLimit(concurrency)
	for i, spot := range saved {
		i, spot := i, spot
		g.Go(func() error {
			results[i] = s.scoreLocation(fetchCtx, spot, today, fallback, activeRules)
			return nil
		})
	}
	_ = g.Wait()

	ranked := make([]RankedLocation, 0, len(saved))
	for _, r := range results {
		if r != nil {
			ranked = append(ranked, *r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

func (s *service) scoreLocation(ctx context.Context, spot location.Saved, today string, fallback *time.Location, activeRules int) *RankedLocation {
	loc := fallback
	if spot.Timezone != "" {
		if spotLoc, err := time.LoadLocation(spot.Timezone); err == nil {
			loc = spotLoc
		} else {
			s.logger.Warn("saved location has unknown timezone", "location_id", spot.ID, "timezone", spot.Timezone)
		}
	}
	start, err := util.ParseDate(today, loc)
	if err != nil {
		return nil
	}
	q := Query{Coord: spot.Coordinate(), Start: start, Days: 1, Location: loc}

	weatherDays, err := s.fetcher.Weather(ctx, q)
	if err != nil {
		s.logger.Warn("skipping location without weather", "location_id", spot.ID, "error", err)
		return nil
	}
	sunDays, err := s.fetcher.Sun(ctx, q)
	if err != nil {
		s.logger.Warn("skipping location without sun data", "location_id", spot.ID, "error", err)
		return nil
	}
	if len(weatherDays) == 0 || len(sunDays) == 0 || !sunDays[0].Complete() {
		return nil
	}

	var tides TideDay
	if batch := s.fetcher.Tides(ctx, q); len(batch.Days) > 0 {
		tides = batch.Days[0]
	}
	if len(tides.Events) == 0 {
		tides = s.synth.Generate(q.Coord, start, 1, loc)[0]
	}

	scores := ScoreDay(weatherDays[0], sunDays[0], tides, activeRules)
	return &RankedLocation{
		ID:     spot.ID,
		Name:   spot.Name,
		Region: spot.Region,
		Lat:    spot.Lat,
		Lng:    spot.Lng,
		Score:  scores.Composite,
		Why:    rankingWhy(scores),
	}
}

func rankingWhy(scores Scores) string {
	parts := make([]string, 0, 4)
	switch {
	case scores.Weather >= 70:
		parts = append(parts, "excellent weather")
	case scores.Weather >= 50:
		parts = append(parts, "good weather")
	}
	if scores.Tide >= 70 {
		parts = append(parts, "favorable tides")
	}
	if scores.DawnDusk >= 50 {
		parts = append(parts, "good bite windows")
	}
	if scores.Seasonality >= 60 {
		parts = append(parts, "species in season")
	}
	if len(parts) == 0 {
		return "decent conditions"
	}
	return strings.Join(parts, ", ")
}

func filterRules(rules []SpeciesRule, speciesID string) []SpeciesRule {
	out := make([]SpeciesRule, 0, 1)
	for _, r := range rules {
		if r.ID == speciesID {
			out = append(out, r)
		}
	}
	return out
}
