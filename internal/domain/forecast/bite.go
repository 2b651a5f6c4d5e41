package forecast

import "time"

type period struct {
	name       string
	start, end time.Time
}

// BestBiteWindows intersects each change window with dawn and with dusk.
func BestBiteWindows(sun SunTimes, tides TideDay) []BiteWindow {
	windows := make([]BiteWindow, 0)
	if !sun.Complete() {
		return windows
	}
	dawnStart, dawnEnd := dawnPeriod(sun)
	duskStart, duskEnd := duskPeriod(sun)
	periods := []period{
		{name: "dawn", start: dawnStart, end: dawnEnd},
		{name: "dusk", start: duskStart, end: duskEnd},
	}

	for _, change := range tides.ChangeWindows {
		for _, p := range periods {
			minutes := OverlapMinutes(change.Start, change.End, p.start, p.end)
			if minutes <= 0 {
				continue
			}
			windows = append(windows, BiteWindow{
				Start:   laterOf(change.Start, p.start),
				End:     earlierOf(change.End, p.end),
				Reason:  p.name + " + " + change.Type + " tide",
				Quality: biteQuality(minutes),
			})
		}
	}
	return windows
}

func biteQuality(minutes int) string {
	switch {
	case minutes >= 60:
		return QualityExcellent
	case minutes >= 30:
		return QualityGood
	default:
		return QualityFair
	}
}
