package forecast

import (
	"time"
)

// Weather condition labels derived from cloud cover.
const (
	ConditionClear        = "clear"
	ConditionPartlyCloudy = "partly_cloudy"
	ConditionMostlyCloudy = "mostly_cloudy"
	ConditionOvercast     = "overcast"
)

// Tide event and transition kinds.
const (
	TideHigh    = "high"
	TideLow     = "low"
	TideRising  = "rising"
	TideFalling = "falling"
	TideAny     = "any"
)

// Bite window quality tiers.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
)

// Reason severities and categories.
const (
	SeverityPositive = "positive"
	SeverityNeutral  = "neutral"
	SeverityNegative = "negative"

	CategoryWeather     = "weather"
	CategoryTide        = "tide"
	CategoryDawnDusk    = "dawn_dusk"
	CategorySeasonality = "seasonality"
)

// WeatherDay is one normalized day of weather.
type WeatherDay struct {
	Date           string  `json:"date"`
	TemperatureMax float64 `json:"temperature_max"`
	TemperatureMin float64 `json:"temperature_min"`
	WindSpeed      float64 `json:"wind_speed"`
	WindDirection  int     `json:"wind_direction"`
	Precipitation  float64 `json:"precipitation"`
	CloudCover     int     `json:"cloud_cover"`
	Conditions     string  `json:"conditions"`
}

// SunTimes carries sunrise and sunset plus the derived dawn and dusk marks.
type SunTimes struct {
	Date    string    `json:"date"`
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
	Dawn    time.Time `json:"dawn"`
	Dusk    time.Time `json:"dusk"`
}

// Complete reports whether every sun field is populated.
func (s SunTimes) Complete() bool {
	return !s.Sunrise.IsZero() && !s.Sunset.IsZero() && !s.Dawn.IsZero() && !s.Dusk.IsZero()
}

// TideEvent is a high or low water mark. Height is a non-negative magnitude.
type TideEvent struct {
	Time   time.Time `json:"time"`
	Type   string    `json:"type"`
	Height float64   `json:"height"`
}

// ChangeWindow spans one hour either side of a tide event.
type ChangeWindow struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Type      string    `json:"type"`
	EventTime time.Time `json:"event_time"`
	EventType string    `json:"event_type"`
}

// TideDay groups a date's events and change windows, both chronological.
type TideDay struct {
	Date          string         `json:"date"`
	Events        []TideEvent    `json:"events"`
	ChangeWindows []ChangeWindow `json:"change_windows"`
	Estimated     bool           `json:"estimated"`
}

// TideSample is a raw height reading from a tide provider.
type TideSample struct {
	Time   time.Time
	Height float64
}

// TideBatch is the cached unit of tide data for a request range.
type TideBatch struct {
	Days []TideDay `json:"tides"`
	Mock bool      `json:"mock"`
}

// SpeciesRule is read-only reference data describing a target species.
type SpeciesRule struct {
	ID                  string  `json:"species_id"`
	Name                string  `json:"common_name"`
	SeasonStartMonth    int     `json:"season_start_month"`
	SeasonEndMonth      int     `json:"season_end_month"`
	PreferredTideState  string  `json:"preferred_tide_state"`
	PreferredWindMax    float64 `json:"preferred_wind_max"`
	PreferredConditions string  `json:"preferred_conditions,omitempty"`
	GearBait            string  `json:"gear_bait,omitempty"`
	GearLure            string  `json:"gear_lure,omitempty"`
	GearLineWeight      string  `json:"gear_line_weight,omitempty"`
	GearLeader          string  `json:"gear_leader,omitempty"`
	GearRig             string  `json:"gear_rig,omitempty"`
}

// ActiveIn reports whether the season covers month, wrapping across the year end.
func (r SpeciesRule) ActiveIn(month int) bool {
	if r.SeasonStartMonth <= r.SeasonEndMonth {
		return month >= r.SeasonStartMonth && month <= r.SeasonEndMonth
	}
	return month >= r.SeasonStartMonth || month <= r.SeasonEndMonth
}

// TackleItem is a catalog entry.
type TackleItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Notes    string `json:"notes,omitempty"`
}

// SpeciesTackle links a tackle item to a species. Priority 1 is essential.
type SpeciesTackle struct {
	SpeciesID string
	Priority  int
	Item      TackleItem
}

// BiteWindow is the overlap of a tide change window with dawn or dusk.
type BiteWindow struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Reason  string    `json:"reason"`
	Quality string    `json:"quality"`
}

// SpeciesRecommendation is a ranked species with a confidence in [0.3, 1.0].
type SpeciesRecommendation struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Why        string  `json:"why"`
}

// TackleEntry is one catalog item inside a tackle category.
type TackleEntry struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Notes    string `json:"notes"`
}

// TackleCategory groups entries by category, ordered by priority.
type TackleCategory struct {
	Category string        `json:"category"`
	Items    []TackleEntry `json:"items"`
}

// GearSuggestion is the suggested setup for a day.
type GearSuggestion struct {
	Bait       []string         `json:"bait"`
	Lure       []string         `json:"lure"`
	LineWeight string           `json:"line_weight"`
	Leader     string           `json:"leader"`
	Rig        string           `json:"rig"`
	Tackle     []TackleCategory `json:"tackle"`
}

// Reason explains one factor of the day's score.
type Reason struct {
	Title              string `json:"title"`
	Detail             string `json:"detail"`
	ContributionPoints int    `json:"contribution_points"`
	Severity           string `json:"severity"`
	Category           string `json:"category"`
}

// Day is one assembled forecast day.
type Day struct {
	Date               string                  `json:"date"`
	Score              int                     `json:"score"`
	Weather            WeatherDay              `json:"weather"`
	Sun                SunTimes                `json:"sun"`
	Tides              TideDay                 `json:"tides"`
	BestBiteWindows    []BiteWindow            `json:"best_bite_windows"`
	RecommendedSpecies []SpeciesRecommendation `json:"recommended_species"`
	GearSuggestions    GearSuggestion          `json:"gear_suggestions"`
	Reasons            []Reason                `json:"reasons"`
}

// LocationSummary describes the forecast point and the saved spot it resolved to.
type LocationSummary struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Name   string  `json:"name"`
	Region *string `json:"region"`
}

// Request is a forecast query. A nil Days uses the configured default.
type Request struct {
	ClientID      string   `validate:"-"`
	Lat           float64  `validate:"gte=-90,lte=90"`
	Lng           float64  `validate:"gte=-180,lte=180"`
	Start         string   `validate:"omitempty,datetime=2006-01-02"`
	Days          *int     `validate:"omitempty,gte=1,lte=14"`
	Timezone      string   `validate:"omitempty,timezone"`
	TargetSpecies []string `validate:"dive,max=64"`
	Refresh       bool     `validate:"-"`
}

// Response is the assembled forecast.
type Response struct {
	Location LocationSummary `json:"location"`
	Timezone string          `json:"timezone"`
	Forecast []Day           `json:"forecast"`
	Cached   bool            `json:"cached"`
	CachedAt time.Time       `json:"cached_at"`
	Warning  string          `json:"warning,omitempty"`
}

// TodaysBestRequest ranks saved locations for today.
type TodaysBestRequest struct {
	ClientID  string
	State     string
	Region    string
	Limit     int
	SpeciesID string
}

// RankedLocation is a saved location scored for today.
type RankedLocation struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Region string  `json:"region"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Score  int     `json:"score"`
	Why    string  `json:"why"`
}

// TodaysBestResponse lists the top saved locations for today.
type TodaysBestResponse struct {
	Date      string           `json:"date"`
	Timezone  string           `json:"timezone"`
	Locations []RankedLocation `json:"locations"`
	Cached    bool             `json:"cached"`
	CachedAt  time.Time        `json:"cached_at"`
}
