// Package geo provides great-circle distance math for geofence
// validation.
package geo

import "math"

// earthRadiusMeters matches the value used by the mobile clients so
// that server and client agree on computed distances.
const earthRadiusMeters = 6371000.0

// Distance returns the haversine distance in meters between two
// coordinates. It is symmetric and zero for identical points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRadius reports whether a point lies within radiusMeters of a
// center. The boundary is inclusive.
func WithinRadius(lat, lon, centerLat, centerLon float64, radiusMeters float64) bool {
	return Distance(lat, lon, centerLat, centerLon) <= radiusMeters
}
