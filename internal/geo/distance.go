// Package geo estimates distances between location records for radius
// filtering.
package geo

import "math"

const earthRadiusKm = 6371.0

// Point is a geocoded location.
type Point struct {
	Lat float64
	Lng float64
}

// DistanceKm returns the great-circle distance between two points, or
// nil when either side is not geocoded. Callers must treat nil as
// "cannot exclude on distance grounds": a tender is never hidden just
// because geocoding is incomplete.
func DistanceKm(a, b *Point) *float64 {
	if a == nil || b == nil {
		return nil
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	d := earthRadiusKm * c
	return &d
}
