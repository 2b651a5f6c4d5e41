package location

import "context"

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Saved is a named fishing spot maintained as reference data.
type Saved struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Region      string  `json:"region"`
	State       string  `json:"state"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Timezone    string  `json:"timezone,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Coordinate returns the location's point.
func (s Saved) Coordinate() Coordinate {
	return Coordinate{Lat: s.Lat, Lng: s.Lng}
}

// Filter narrows a listing of saved locations. Empty fields match everything.
type Filter struct {
	State  string
	Region string
	Limit  int
}

// Repository reads saved locations.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Saved, error)
}
