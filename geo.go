package main

import (
	"fmt"
	"math"
)

// HaversineM returns the great-circle distance in meters between two
// latitude/longitude pairs.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// BearingDeg returns the initial bearing in degrees (0-360) from the first
// point to the second.
func BearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	bearing := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// HeadingDelta returns the absolute angular difference between two headings
// on the shortest arc, in the range 0-180.
func HeadingDelta(a, b float64) float64 {
	diff := math.Mod(math.Abs(a-b), 360)
	if diff > 180 {
		return 360 - diff
	}
	return diff
}

// ZoneKey buckets a position into a coarse grouping cell by rounding both
// coordinates to three decimal places.
func ZoneKey(lat, lon float64) string {
	return fmt.Sprintf("%.3f:%.3f", lat, lon)
}

// ZoneLabel buckets the scaled absolute coordinates into one of nine rings.
// Cosmetic only; hit resolution never reads it.
func ZoneLabel(lat, lon float64) string {
	latBucket := int(math.Abs(lat) * 1000)
	lonBucket := int(math.Abs(lon) * 1000)
	ring := (latBucket+lonBucket)%ZoneRings + 1
	return fmt.Sprintf("GRID-%d", ring)
}
