// Package track holds the spatial side of the engine: great-circle
// distances, the start/finish geofence configuration, sector
// classification and timing, and the precomputed course polyline.
package track

import (
	"grstrategy/pkg/model"
	"math"
)

const earthRadius = 6371000 // meters

// Distance is the approximate haversine distance between two GPS points,
// in meters.
func Distance(a, b model.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLong := (b.Long - a.Long) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLong/2)*math.Sin(deltaLong/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c
}
