// Package geo holds the distance formulas shared by the matcher and the
// route planner.
package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used by Haversine.
	EarthRadiusMeters = 6371000.0

	// MetersPerDegree is the planar scale used by ApproxMeters.
	MetersPerDegree = 111000.0
)

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ApproxMeters is a cheap planar approximation that treats one degree of
// latitude or longitude as 111 km. It overestimates east-west distances away
// from the equator, so it is only used to discard obviously distant points.
func ApproxMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	return math.Sqrt(dLat*dLat+dLon*dLon) * MetersPerDegree
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
