package domain

import "math"

// earthRadiusMiles keeps distances in miles to match the radius parameter of
// the search API.
const earthRadiusMiles = 3958.8

// Distance returns the great-circle distance in miles between two
// latitude/longitude pairs, using the haversine formula. It is symmetric,
// zero for identical points, and handles the antimeridian correctly.
// Out-of-range coordinates are the caller's problem.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}
