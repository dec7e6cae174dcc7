package ourairports

import "airportmath/internal/domain"

// fallbackAirports is served when the dataset cannot be downloaded. Order is
// curated priority and is kept by proximity search on ties.
var fallbackAirports = []domain.Airport{
	{ID: "KLAX", Name: "Los Angeles International Airport", City: "Los Angeles", Country: "US", IATA: "LAX", ICAO: "KLAX", Location: domain.Coordinate{Lat: 33.9425, Lng: -118.4081}, Elevation: 38, Timezone: "America/Los_Angeles", Type: domain.AirportTypeLarge},
	{ID: "KJFK", Name: "John F. Kennedy International Airport", City: "New York", Country: "US", IATA: "JFK", ICAO: "KJFK", Location: domain.Coordinate{Lat: 40.6413, Lng: -73.7781}, Elevation: 4, Timezone: "America/New_York", Type: domain.AirportTypeLarge},
	{ID: "EGLL", Name: "London Heathrow Airport", City: "London", Country: "GB", IATA: "LHR", ICAO: "EGLL", Location: domain.Coordinate{Lat: 51.4700, Lng: -0.4543}, Elevation: 25, Timezone: "Europe/London", Type: domain.AirportTypeLarge},
	{ID: "LFPG", Name: "Charles de Gaulle Airport", City: "Paris", Country: "FR", IATA: "CDG", ICAO: "LFPG", Location: domain.Coordinate{Lat: 49.0097, Lng: 2.5479}, Elevation: 119, Timezone: "Europe/Paris", Type: domain.AirportTypeLarge},
	{ID: "RJAA", Name: "Narita International Airport", City: "Tokyo", Country: "JP", IATA: "NRT", ICAO: "RJAA", Location: domain.Coordinate{Lat: 35.7720, Lng: 140.3929}, Elevation: 43, Timezone: "Asia/Tokyo", Type: domain.AirportTypeLarge},
	{ID: "KATL", Name: "Hartsfield-Jackson Atlanta International Airport", City: "Atlanta", Country: "US", IATA: "ATL", ICAO: "KATL", Location: domain.Coordinate{Lat: 33.6407, Lng: -84.4277}, Elevation: 313, Timezone: "America/New_York", Type: domain.AirportTypeLarge},
	{ID: "OMDB", Name: "Dubai International Airport", City: "Dubai", Country: "AE", IATA: "DXB", ICAO: "OMDB", Location: domain.Coordinate{Lat: 25.2532, Lng: 55.3657}, Elevation: 62, Timezone: "Asia/Dubai", Type: domain.AirportTypeLarge},
	{ID: "WSSS", Name: "Singapore Changi Airport", City: "Singapore", Country: "SG", IATA: "SIN", ICAO: "WSSS", Location: domain.Coordinate{Lat: 1.3644, Lng: 103.9915}, Elevation: 22, Timezone: "Asia/Singapore", Type: domain.AirportTypeLarge},
	{ID: "EDDF", Name: "Frankfurt Airport", City: "Frankfurt", Country: "DE", IATA: "FRA", ICAO: "EDDF", Location: domain.Coordinate{Lat: 50.0379, Lng: 8.5622}, Elevation: 111, Timezone: "Europe/Berlin", Type: domain.AirportTypeLarge},
	{ID: "EHAM", Name: "Amsterdam Airport Schiphol", City: "Amsterdam", Country: "NL", IATA: "AMS", ICAO: "EHAM", Location: domain.Coordinate{Lat: 52.3105, Lng: 4.7683}, Elevation: -3, Timezone: "Europe/Amsterdam", Type: domain.AirportTypeLarge},
}

// Fallback returns a copy of the curated major-airport list
func Fallback() []domain.Airport {
	out := make([]domain.Airport, len(fallbackAirports))
	copy(out, fallbackAirports)
	return out
}
