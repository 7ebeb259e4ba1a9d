// Package geo provides great-circle distance calculations used for event
// filtering, sorting, and display.
package geo

import "math"

// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
const EarthRadiusMiles = 3958.8

// DistanceMiles returns the great-circle distance in miles between two
// coordinate pairs. It is symmetric and returns 0 for identical points.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// RoundMiles rounds a distance to one decimal place, the display precision
// events carry.
func RoundMiles(miles float64) float64 {
	return math.Round(miles*10) / 10
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
