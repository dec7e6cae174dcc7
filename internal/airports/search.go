package airports

import (
	"slices"
	"strings"

	"airportmath/internal/domain"
	"airportmath/pkg/geo"
)

const (
	DefaultMaxResults    = 10
	DefaultMaxDistanceKm = 2000.0
)

// NearbyResult is the response shape of a proximity search
type NearbyResult struct {
	Airports     []domain.Airport  `json:"airports"`
	UserLocation domain.Coordinate `json:"userLocation"`
}

// FindNearby returns copies of the airports within maxDistanceKm of origin,
// closest first. Airports at equal distance keep their input order.
// Non-positive limits fall back to the defaults.
func FindNearby(origin domain.Coordinate, airports []domain.Airport, maxResults int, maxDistanceKm float64) []domain.Airport {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}

	result := make([]domain.Airport, 0, min(len(airports), maxResults))
	for _, a := range airports {
		d := geo.Distance(origin, a.Location)
		if d > maxDistanceKm {
			continue
		}
		near := a.WithDistance(d)
		near.DistanceText = geo.FormatDistance(d)
		result = append(result, near)
	}

	slices.SortStableFunc(result, func(a, b domain.Airport) int {
		switch {
		case *a.DistanceKm < *b.DistanceKm:
			return -1
		case *a.DistanceKm > *b.DistanceKm:
			return 1
		default:
			return 0
		}
	})

	if len(result) > maxResults {
		result = result[:maxResults]
	}
	return result
}

// Nearby wraps FindNearby in the API response shape
func Nearby(origin domain.Coordinate, airports []domain.Airport, maxResults int, maxDistanceKm float64) NearbyResult {
	return NearbyResult{
		Airports:     FindNearby(origin, airports, maxResults, maxDistanceKm),
		UserLocation: origin,
	}
}

// FindByCode looks up an airport by IATA code, ignoring case
func FindByCode(airports []domain.Airport, code string) (domain.Airport, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Airport{}, false
	}
	for _, a := range airports {
		if strings.EqualFold(a.IATA, code) {
			return a, true
		}
	}
	return domain.Airport{}, false
}

// SearchByText returns the first maxResults airports, in source order, whose
// name, city, IATA or ICAO code contains query (case-insensitive).
func SearchByText(airports []domain.Airport, query string, maxResults int) []domain.Airport {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	term := strings.ToLower(strings.TrimSpace(query))

	result := make([]domain.Airport, 0)
	for _, a := range airports {
		if len(result) >= maxResults {
			break
		}
		if matches(a, term) {
			result = append(result, a)
		}
	}
	return result
}

func matches(a domain.Airport, term string) bool {
	return strings.Contains(strings.ToLower(a.Name), term) ||
		strings.Contains(strings.ToLower(a.City), term) ||
		strings.Contains(strings.ToLower(a.IATA), term) ||
		strings.Contains(strings.ToLower(a.ICAO), term)
}
