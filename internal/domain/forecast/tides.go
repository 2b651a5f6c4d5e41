package forecast

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/yanqian/fishcast/internal/domain/location"
	"github.com/yanqian/fishcast/pkg/util"
)

const (
	dateLayout         = util.DateLayout
	changeWindowRadius = time.Hour

	southernLatitude   = -38.0
	southernAmplitude  = 1.8
	defaultAmplitude   = 1.5
	referenceLongitude = 144.0
	dailyLagHours      = 0.75
)

// RandSource yields uniform integers in [0, n).
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.Intn(n) }

// TideSynthesizer produces a simple periodic approximation of tides: four
// alternating low and high events per day, roughly 6.2 hours apart and
// drifting 45 minutes later each day.
type TideSynthesizer struct {
	rand RandSource
}

// NewTideSynthesizer returns a synthesizer using src for height jitter.
// A nil src uses the process-wide generator.
func NewTideSynthesizer(src RandSource) *TideSynthesizer {
	if src == nil {
		src = globalRand{}
	}
	return &TideSynthesizer{rand: src}
}

type syntheticEvent struct {
	offset float64
	kind   string
	base   float64
	jitter int
}

// Generate returns days of synthetic tides starting at start's calendar date in loc.
func (s *TideSynthesizer) Generate(coord location.Coordinate, start time.Time, days int, loc *time.Location) []TideDay {
	amplitude := defaultAmplitude
	if coord.Lat < southernLatitude {
		amplitude = southernAmplitude
	}
	baseHour := 2.0 + (coord.Lng-referenceLongitude)*0.1
	first := util.StartOfDay(start, loc)

	out := make([]TideDay, 0, days)
	for day := 0; day < days; day++ {
		date := first.AddDate(0, 0, day)
		out = append(out, s.generateDay(date, baseHour+float64(day)*dailyLagHours, amplitude, loc))
	}
	return out
}

func (s *TideSynthesizer) generateDay(date time.Time, phase, amplitude float64, loc *time.Location) TideDay {
	pattern := []syntheticEvent{
		{offset: 0, kind: TideLow, base: 0.4, jitter: 20},
		{offset: 6.2, kind: TideHigh, base: amplitude - 0.2, jitter: 40},
		{offset: 12.4, kind: TideLow, base: 0.5, jitter: 20},
		{offset: 18.6, kind: TideHigh, base: amplitude - 0.1, jitter: 40},
	}
	events := make([]TideEvent, 0, len(pattern))
	for _, p := range pattern {
		height := p.base + float64(s.rand.IntN(p.jitter+1))/100
		events = append(events, TideEvent{
			Time:   wallClock(date, phase+p.offset, loc),
			Type:   p.kind,
			Height: roundTo(height, 2),
		})
	}
	return newTideDay(date.Format(dateLayout), events, true)
}

// wallClock places a fractional hour, wrapped into [0, 24), on date.
func wallClock(date time.Time, hour float64, loc *time.Location) time.Time {
	hour = math.Mod(hour, 24)
	if hour < 0 {
		hour += 24
	}
	whole := int(hour)
	minutes := int((hour - float64(whole)) * 60)
	return time.Date(date.Year(), date.Month(), date.Day(), whole, minutes, 0, 0, loc)
}

// BuildChangeWindows derives a window one hour either side of each event,
// sorted by start.
func BuildChangeWindows(events []TideEvent) []ChangeWindow {
	windows := make([]ChangeWindow, 0, len(events))
	for _, e := range events {
		kind := TideFalling
		if e.Type == TideLow {
			kind = TideRising
		}
		windows = append(windows, ChangeWindow{
			Start:     e.Time.Add(-changeWindowRadius),
			End:       e.Time.Add(changeWindowRadius),
			Type:      kind,
			EventTime: e.Time,
			EventType: e.Type,
		})
	}
	sort.SliceStable(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
	return windows
}

func newTideDay(date string, events []TideEvent, estimated bool) TideDay {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	return TideDay{
		Date:          date,
		Events:        events,
		ChangeWindows: BuildChangeWindows(events),
		Estimated:     estimated,
	}
}

// BucketTideSamples groups raw samples by local date. A sample above datum
// is treated as a high and anything else as a low; this is a sign heuristic,
// not extrema detection.
func BucketTideSamples(samples []TideSample, loc *time.Location) []TideDay {
	byDate := make(map[string][]TideEvent)
	order := make([]string, 0)
	for _, sample := range samples {
		local := sample.Time.In(loc)
		date := local.Format(dateLayout)
		if _, seen := byDate[date]; !seen {
			order = append(order, date)
		}
		kind := TideLow
		if sample.Height > 0 {
			kind = TideHigh
		}
		byDate[date] = append(byDate[date], TideEvent{
			Time:   local,
			Type:   kind,
			Height: math.Abs(sample.Height),
		})
	}
	sort.Strings(order)
	days := make([]TideDay, 0, len(order))
	for _, date := range order {
		days = append(days, newTideDay(date, byDate[date], false))
	}
	return days
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
