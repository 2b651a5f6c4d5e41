package forecast

import (
	"math"
	"strconv"
)

const estimatedTidesSuffix = " (estimated tides)"

// BuildReasons explains the day's score: always weather, tide and seasonality,
// plus dawn/dusk when that sub-score reaches 50.
func BuildReasons(scores Scores, weather WeatherDay, tides TideDay) []Reason {
	reasons := make([]Reason, 0, 4)
	reasons = append(reasons, weatherReason(scores.Weather, weather))
	reasons = append(reasons, tideReason(scores.Tide, tides))
	if scores.DawnDusk >= 50 {
		reasons = append(reasons, Reason{
			Title:              "Dawn/dusk-tide overlap",
			Detail:             "Optimal feeding windows during dawn or dusk periods",
			ContributionPoints: contribution(scores.DawnDusk, WeightDawnDusk),
			Severity:           SeverityPositive,
			Category:           CategoryDawnDusk,
		})
	}
	reasons = append(reasons, seasonalityReason(scores.Seasonality))
	return reasons
}

func weatherReason(score float64, day WeatherDay) Reason {
	r := Reason{
		ContributionPoints: contribution(score, WeightWeather),
		Category:           CategoryWeather,
	}
	wind := formatOneDecimal(day.WindSpeed)
	switch {
	case score >= 70:
		rain := "minimal rain"
		if day.Precipitation == 0 {
			rain = "no precipitation"
		}
		sky := "partly cloudy"
		if day.CloudCover < 30 {
			sky = "clear skies"
		}
		r.Title = "Excellent weather conditions"
		r.Detail = "Light winds (" + wind + " km/h), " + rain + ", " + sky
		r.Severity = SeverityPositive
	case score >= 50:
		rain := "no precipitation"
		if day.Precipitation > 0 {
			rain = formatOneDecimal(day.Precipitation) + "mm rain"
		}
		r.Title = "Moderate weather conditions"
		r.Detail = "Wind speed " + wind + " km/h, " + rain
		r.Severity = SeverityNeutral
	default:
		detail := "Strong winds (" + wind + " km/h)"
		if day.Precipitation > 5 {
			detail += " and heavy rain (" + formatOneDecimal(day.Precipitation) + "mm)"
		}
		r.Title = "Poor weather conditions"
		r.Detail = detail + " may affect fishing"
		r.Severity = SeverityNegative
	}
	return r
}

func tideReason(score float64, day TideDay) Reason {
	r := Reason{
		ContributionPoints: contribution(score, WeightTide),
		Category:           CategoryTide,
	}
	count := strconv.Itoa(len(day.Events))
	switch {
	case score >= 70:
		r.Title = "Strong tide activity"
		r.Detail = count + " tide changes today with good range"
		r.Severity = SeverityPositive
	case score >= 50:
		r.Title = "Moderate tide activity"
		r.Detail = count + " tide changes expected"
		r.Severity = SeverityNeutral
	default:
		r.Title = "Limited tide activity"
		r.Detail = "Fewer tide changes may reduce fish activity"
		r.Severity = SeverityNegative
	}
	if day.Estimated {
		r.Detail += estimatedTidesSuffix
	}
	return r
}

func seasonalityReason(score float64) Reason {
	r := Reason{
		ContributionPoints: contribution(score, WeightSeasonality),
		Category:           CategorySeasonality,
	}
	switch {
	case score >= 60:
		r.Title = "Peak season for multiple species"
		r.Detail = "Several target species are in their peak season this month"
		r.Severity = SeverityPositive
	case score >= 40:
		r.Title = "Some species in season"
		r.Detail = "A few target species are active this month"
		r.Severity = SeverityNeutral
	default:
		r.Title = "Off-season for most species"
		r.Detail = "Fewer species are in peak season, but fishing is still possible"
		r.Severity = SeverityNegative
	}
	return r
}

func contribution(score, weight float64) int {
	return int(math.Round(score * weight))
}

func formatOneDecimal(v float64) string {
	return strconv.FormatFloat(roundTo(v, 1), 'f', -1, 64)
}
