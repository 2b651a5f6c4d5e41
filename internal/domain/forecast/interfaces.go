package forecast

import (
	"context"
	"time"

	"github.com/yanqian/fishcast/internal/domain/cache"
	"github.com/yanqian/fishcast/internal/domain/location"
	"github.com/yanqian/fishcast/internal/domain/ratelimit"
)

// Query is a normalized date range at a point. Start is midnight in Location.
type Query struct {
	Coord    location.Coordinate
	Start    time.Time
	Days     int
	Location *time.Location
}

// StartDate returns the range start as YYYY-MM-DD.
func (q Query) StartDate() string {
	return q.Start.Format(dateLayout)
}

// Timezone returns the IANA name of the query zone.
func (q Query) Timezone() string {
	return q.Location.String()
}

// WeatherProvider fetches daily weather for a query.
type WeatherProvider interface {
	DailyWeather(ctx context.Context, q Query) ([]WeatherDay, error)
}

// SunProvider fetches daily sunrise and sunset for a query.
type SunProvider interface {
	DailySun(ctx context.Context, q Query) ([]SunTimes, error)
}

// TideProvider returns raw height samples. It is optional.
type TideProvider interface {
	Heights(ctx context.Context, q Query) ([]TideSample, error)
}

// ReferenceRepository exposes species and tackle reference data.
type ReferenceRepository interface {
	// ActiveSpeciesRules lists rules whose season covers month, ordered by species id.
	ActiveSpeciesRules(ctx context.Context, month int) ([]SpeciesRule, error)
	// TackleForSpecies lists links ordered by species id, priority and item name.
	TackleForSpecies(ctx context.Context, speciesIDs []string) ([]SpeciesTackle, error)
}

// Cache is the best-effort payload cache used by fetchers and the orchestrator.
type Cache interface {
	GetJSON(ctx context.Context, key cache.Key, dst any) bool
	SetJSON(ctx context.Context, key cache.Key, v any, ttl time.Duration)
	ClearExpired(ctx context.Context)
}

// RateLimiter checks per-client request windows.
type RateLimiter interface {
	CheckLimit(ctx context.Context, clientID, endpoint string) (ratelimit.Decision, error)
}
