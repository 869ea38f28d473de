// Package geo implements the geofence containment check used to prove
// physical presence. Pure computation, no I/O.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used for great-circle distance.
const earthRadiusMeters = 6371000.0

// Distance returns the great-circle (haversine) distance in meters between
// two WGS84 coordinate pairs.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Floating point drift can push a just outside [0, 1] for antipodal or
	// identical points; clamp so Sqrt/Atan2 never see an invalid domain.
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// WithinRadius reports whether the point (lat, lon) lies within radiusMeters
// of the center (centerLat, centerLon). A zero radius still contains the
// center itself.
func WithinRadius(lat, lon, centerLat, centerLon, radiusMeters float64) bool {
	if radiusMeters < 0 {
		return false
	}
	return Distance(lat, lon, centerLat, centerLon) <= radiusMeters
}
