package domain

import "math"

// AirportType distinguishes the commercial airport classes kept in the dataset
type AirportType string

const (
	AirportTypeLarge  AirportType = "large_airport"
	AirportTypeMedium AirportType = "medium_airport"
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite and inside the lat/lng ranges
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Airport is read-only reference data. DistanceKm is only set on copies
// returned by a proximity search.
type Airport struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	City         string      `json:"city"`
	Country      string      `json:"country"`
	IATA         string      `json:"iata"`
	ICAO         string      `json:"icao"`
	Location     Coordinate  `json:"location"`
	Elevation    int         `json:"elevation"`
	Timezone     string      `json:"timezone"`
	Type         AirportType `json:"type"`
	DistanceKm   *float64    `json:"distanceKm,omitempty"`
	// DistanceText is DistanceKm formatted for display
	DistanceText string      `json:"distanceText,omitempty"`
}

// WithDistance returns a copy of the airport carrying the given distance
func (a Airport) WithDistance(km float64) Airport {
	a.DistanceKm = &km
	return a
}
