package geo

import (
	"fmt"
	"math"

	"airportmath/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by the Haversine formula
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometers.
// Inputs are not range checked.
func Distance(a, b domain.Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// DistanceMeters is Distance expressed in meters
func DistanceMeters(a, b domain.Coordinate) float64 {
	return Distance(a, b) * 1000
}

// FormatDistance renders a kilometer distance for display: meters below
// 1 km, one decimal below 10 km, whole kilometers above.
func FormatDistance(km float64) string {
	switch {
	case km < 1:
		return fmt.Sprintf("%dm", int(math.Round(km*1000)))
	case km < 10:
		return fmt.Sprintf("%.1fkm", km)
	default:
		return fmt.Sprintf("%dkm", int(math.Round(km)))
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
