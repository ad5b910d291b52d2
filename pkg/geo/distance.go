package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius of the spherical earth model used for
// both in-process and SQL distance evaluation.
const EarthRadiusMeters = 6371000.0

// Point is a longitude/latitude pair in degrees.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// NewPoint builds a point from longitude and latitude, in that order.
func NewPoint(longitude, latitude float64) Point {
	return Point{Longitude: longitude, Latitude: latitude}
}

// Validate checks that the coordinates are within WGS84 bounds.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// DistanceMeters returns the great-circle distance between two points using
// the haversine formula.
func DistanceMeters(a, b Point) float64 {
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(a.Latitude))*math.Cos(degreesToRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h past 1 for antipodal points.
	h = math.Min(1, h)

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
