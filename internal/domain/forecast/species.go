package forecast

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	baseConfidence     = 0.60
	minConfidence      = 0.30
	maxConfidence      = 1.00
	defaultWindMax     = 30.0
	maxRecommendations = 3
)

// RecommendSpecies scores every in-season rule against the day's conditions
// and returns the top three by confidence. Ties keep rule order.
func RecommendSpecies(rules []SpeciesRule, weather WeatherDay, tides TideDay) []SpeciesRecommendation {
	out := make([]SpeciesRecommendation, 0, len(rules))
	if len(rules) == 0 {
		return out
	}

	var tideState string
	if len(tides.ChangeWindows) > 0 {
		tideState = tides.ChangeWindows[0].Type
	}

	for _, rule := range rules {
		out = append(out, scoreSpecies(rule, weather, tideState))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

func scoreSpecies(rule SpeciesRule, weather WeatherDay, tideState string) SpeciesRecommendation {
	windMax := rule.PreferredWindMax
	if windMax <= 0 {
		windMax = defaultWindMax
	}

	confidence := decimal.NewFromFloat(baseConfidence)
	why := []string{"In season"}

	if weather.WindSpeed <= windMax {
		confidence = confidence.Add(decimal.NewFromFloat(0.15))
		why = append(why, "wind conditions suitable")
	} else {
		confidence = confidence.Sub(decimal.NewFromFloat(0.20))
	}

	switch {
	case weather.Precipitation <= 2:
		confidence = confidence.Add(decimal.NewFromFloat(0.10))
		why = append(why, "minimal rain")
	case weather.Precipitation > 5:
		confidence = confidence.Sub(decimal.NewFromFloat(0.15))
	}

	if tideState != "" {
		switch rule.PreferredTideState {
		case TideAny:
			confidence = confidence.Add(decimal.NewFromFloat(0.05))
		case tideState:
			confidence = confidence.Add(decimal.NewFromFloat(0.10))
			why = append(why, "preferred tide state ("+tideState+")")
		}
	}

	confidence = decimal.Max(decimal.NewFromFloat(minConfidence), decimal.Min(decimal.NewFromFloat(maxConfidence), confidence))
	value, _ := confidence.Round(2).Float64()

	return SpeciesRecommendation{
		ID:         rule.ID,
		Name:       rule.Name,
		Confidence: value,
		Why:        strings.Join(why, ", "),
	}
}
