package location

import "math"

const earthRadiusKm = 6371.0

// Match is the nearest saved location with its distance rounded to 0.1 km.
type Match struct {
	Location   Saved
	DistanceKm float64
}

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Nearest scans candidates linearly and returns the closest one strictly
// within maxKm of point.
func Nearest(candidates []Saved, point Coordinate, maxKm float64) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for _, candidate := range candidates {
		d := DistanceKm(point, candidate.Coordinate())
		if d >= maxKm {
			continue
		}
		if !found || d < best.DistanceKm {
			best = Match{Location: candidate, DistanceKm: d}
			found = true
		}
	}
	if !found {
		return Match{}, false
	}
	best.DistanceKm = math.Round(best.DistanceKm*10) / 10
	return best, true
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
