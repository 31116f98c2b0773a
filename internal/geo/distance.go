package geo

import (
	"math"

	"github.com/vanhalal/halal-cli/internal/model"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometres between an origin
// and a restaurant's coordinates. Missing coordinates return +Inf so that
// radius filters exclude the restaurant without a special case.
func Distance(origin model.Coordinates, coords *model.Coordinates) float64 {
	if coords == nil {
		return math.Inf(1)
	}

	lat1 := origin.Lat * math.Pi / 180
	lat2 := coords.Lat * math.Pi / 180
	dLat := (coords.Lat - origin.Lat) * math.Pi / 180
	dLng := (coords.Lng - origin.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// WithinRadius reports whether a restaurant lies within radiusKm of origin.
// The +Inf sentinel from missing coordinates never passes.
func WithinRadius(origin model.Coordinates, coords *model.Coordinates, radiusKm float64) bool {
	return Distance(origin, coords) <= radiusKm
}
