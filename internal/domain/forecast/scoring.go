package forecast

import (
	"math"
	"time"
)

// Sub-score weights of the composite score.
const (
	WeightWeather     = 0.35
	WeightTide        = 0.30
	WeightDawnDusk    = 0.20
	WeightSeasonality = 0.15
)

const (
	dawnLead        = 30 * time.Minute
	dawnTail        = 2 * time.Hour
	duskLead        = 2 * time.Hour
	duskTail        = 30 * time.Minute
	missingSunScore = 20
)

// Scores holds the four sub-scores and the composite for a day.
type Scores struct {
	Weather     float64
	Tide        float64
	DawnDusk    float64
	Seasonality float64
	Composite   int
}

// ScoreDay computes every sub-score and the composite.
func ScoreDay(weather WeatherDay, sun SunTimes, tides TideDay, activeRules int) Scores {
	s := Scores{
		Weather:     WeatherScore(weather),
		Tide:        TideScore(tides),
		DawnDusk:    DawnDuskScore(sun, tides),
		Seasonality: SeasonalityScore(activeRules),
	}
	s.Composite = CompositeScore(s.Weather, s.Tide, s.DawnDusk, s.Seasonality)
	return s
}

// WeatherScore rates wind (50 points), rain (30) and cloud (20).
func WeatherScore(day WeatherDay) float64 {
	return windPoints(day.WindSpeed) + precipPoints(day.Precipitation) + cloudPoints(day.CloudCover)
}

func windPoints(v float64) float64 {
	switch {
	case v <= 10:
		return 50
	case v <= 20:
		return 40 - (v - 10)
	case v <= 30:
		return 30 - (v-20)*1.5
	default:
		return math.Max(0, 15-(v-30)*0.5)
	}
}

func precipPoints(mm float64) float64 {
	switch {
	case mm <= 0:
		return 30
	case mm <= 2:
		return 25
	case mm <= 5:
		return 15
	default:
		return 5
	}
}

func cloudPoints(pct int) float64 {
	switch {
	case pct <= 30:
		return 20
	case pct <= 60:
		return 15
	case pct <= 80:
		return 10
	default:
		return 5
	}
}

// TideScore rates change frequency (60 points) and range (40).
func TideScore(day TideDay) float64 {
	var frequency float64
	changes := float64(len(day.Events)) / 2
	switch {
	case changes >= 2:
		frequency = 60
	case changes == 1:
		frequency = 40
	default:
		frequency = 20
	}

	var amplitude float64
	r := tideRange(day.Events)
	switch {
	case r >= 1.5:
		amplitude = 40
	case r >= 1.0:
		amplitude = 30
	case r >= 0.5:
		amplitude = 20
	default:
		amplitude = 10
	}
	return frequency + amplitude
}

func tideRange(events []TideEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	lo, hi := events[0].Height, events[0].Height
	for _, e := range events[1:] {
		lo = math.Min(lo, e.Height)
		hi = math.Max(hi, e.Height)
	}
	return hi - lo
}

// DawnDuskScore buckets the total minutes that change windows overlap dawn and dusk.
func DawnDuskScore(sun SunTimes, tides TideDay) float64 {
	if !sun.Complete() {
		return missingSunScore
	}
	dawnStart, dawnEnd := dawnPeriod(sun)
	duskStart, duskEnd := duskPeriod(sun)

	total := 0
	for _, w := range tides.ChangeWindows {
		total += OverlapMinutes(w.Start, w.End, dawnStart, dawnEnd)
		total += OverlapMinutes(w.Start, w.End, duskStart, duskEnd)
	}
	switch {
	case total >= 120:
		return 100
	case total >= 60:
		return 80
	case total >= 30:
		return 60
	case total >= 15:
		return 40
	default:
		return missingSunScore
	}
}

// SeasonalityScore rates how many species are in season this month.
func SeasonalityScore(activeCount int) float64 {
	var points float64
	switch {
	case activeCount >= 5:
		points = 60
	case activeCount >= 3:
		points = 45
	case activeCount >= 2:
		points = 30
	case activeCount >= 1:
		points = 20
	default:
		points = 10
	}
	return points + math.Min(40, float64(activeCount*8))
}

// CompositeScore is the rounded weighted sum of the sub-scores.
func CompositeScore(weather, tide, dawnDusk, seasonality float64) int {
	score := weather*WeightWeather + tide*WeightTide + dawnDusk*WeightDawnDusk + seasonality*WeightSeasonality
	return int(math.Round(score))
}

// OverlapMinutes returns the whole minutes shared by [aStart, aEnd) and [bStart, bEnd).
func OverlapMinutes(aStart, aEnd, bStart, bEnd time.Time) int {
	start := laterOf(aStart, bStart)
	end := earlierOf(aEnd, bEnd)
	if !start.Before(end) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

func dawnPeriod(sun SunTimes) (time.Time, time.Time) {
	return sun.Sunrise.Add(-dawnLead), sun.Sunrise.Add(dawnTail)
}

func duskPeriod(sun SunTimes) (time.Time, time.Time) {
	return sun.Sunset.Add(-duskLead), sun.Sunset.Add(duskTail)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
