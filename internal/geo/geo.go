// Package geo provides geographic primitives shared across the API:
// the coordinate type and great-circle distance computation.
package geo

import (
	"math"

	"github.com/umahmood/haversine"
)

// Coordinate represents a geographic point in WGS84 degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is within the WGS84 range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceKm returns the haversine distance between two coordinates in
// kilometers, rounded to one decimal place. The underlying computation uses
// Earth's mean radius (6371 km).
func DistanceKm(a, b Coordinate) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lng},
		haversine.Coord{Lat: b.Lat, Lon: b.Lng},
	)
	return math.Round(km*10) / 10
}
