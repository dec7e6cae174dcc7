package ourairports

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"airportmath/internal/domain"
)

const feetToMeters = 0.3048

// Rejection reasons reported in ParseResult.Rejected
const (
	RejectMalformed   = "malformed"
	RejectType        = "type"
	RejectIATA        = "iata"
	RejectCoordinates = "coordinates"
	RejectScheduled   = "scheduled_service"
	RejectName        = "name"
	RejectKeyword     = "excluded_keyword"
)

// Names containing any of these are not passenger airports
var excludedKeywords = []string{"military", "air force", "army", "navy", "private", "heliport"}

type ParseResult struct {
	Airports []domain.Airport
	Rejected map[string]int
}

type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{
		logger: logger.With("component", "airports_parser"),
	}
}

// Parse reads an OurAirports airports.csv and keeps only commercial
// passenger airports. Rows that fail validation are counted, not returned.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	start := time.Now()

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.Trim(strings.TrimSpace(h), "'\"\ufeff")] = i
	}
	for _, required := range []string{"type", "name", "latitude_deg", "longitude_deg", "iata_code"} {
		if _, ok := headerMap[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	result := &ParseResult{
		Airports: make([]domain.Airport, 0, 4096),
		Rejected: make(map[string]int),
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", rows+1, err)
		}
		rows++

		if len(record) < len(header) {
			result.Rejected[RejectMalformed]++
			continue
		}

		airport, reason := parseRow(record, headerMap)
		if reason != "" {
			result.Rejected[reason]++
			continue
		}
		result.Airports = append(result.Airports, airport)
	}

	p.logger.Info("parsed airports",
		"rows", rows,
		"airports", len(result.Airports),
		"rejected", rows-len(result.Airports),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// parseRow validates one CSV row into an Airport. A non-empty reason means
// the row was rejected.
func parseRow(record []string, headerMap map[string]int) (domain.Airport, string) {
	get := func(name string) string { return getField(record, headerMap, name) }

	aType := domain.AirportType(get("type"))
	if aType != domain.AirportTypeLarge && aType != domain.AirportTypeMedium {
		return domain.Airport{}, RejectType
	}

	iata := strings.ToUpper(get("iata_code"))
	if len(iata) != 3 {
		return domain.Airport{}, RejectIATA
	}

	lat, latErr := strconv.ParseFloat(get("latitude_deg"), 64)
	lng, lngErr := strconv.ParseFloat(get("longitude_deg"), 64)
	loc := domain.Coordinate{Lat: lat, Lng: lng}
	if latErr != nil || lngErr != nil || !loc.Valid() {
		return domain.Airport{}, RejectCoordinates
	}

	if _, ok := headerMap["scheduled_service"]; ok && get("scheduled_service") != "yes" {
		return domain.Airport{}, RejectScheduled
	}

	name := get("name")
	city := get("municipality")
	if name == "" || city == "" {
		return domain.Airport{}, RejectName
	}
	lower := strings.ToLower(name)
	for _, kw := range excludedKeywords {
		if strings.Contains(lower, kw) {
			return domain.Airport{}, RejectKeyword
		}
	}

	ident := get("ident")
	id := ident
	if id == "" {
		id = iata
	}

	return domain.Airport{
		ID:        id,
		Name:      name,
		City:      city,
		Country:   get("iso_country"),
		IATA:      iata,
		ICAO:      firstNonEmpty(get("icao_code"), get("gps_code"), ident),
		Location:  loc,
		Elevation: elevationMeters(get("elevation_ft")),
		Timezone:  firstNonEmpty(get("timezone"), "UTC"),
		Type:      aType,
	}, ""
}

func elevationMeters(feet string) int {
	ft, err := strconv.ParseFloat(feet, 64)
	if err != nil {
		return 0
	}
	return int(math.Round(ft * feetToMeters))
}

// getField safely retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
