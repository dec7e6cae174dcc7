package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"airportmath/internal/domain"
	"airportmath/internal/middleware"
)

var errRoutingUnavailable = errors.New("no route estimates available")

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// requestLogger tags logger with the request id assigned by the access log
func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	if id := middleware.RequestID(r.Context()); id != "" {
		return logger.With("request_id", id)
	}
	return logger
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAirportNotFound):
		return http.StatusNotFound
	case errors.Is(err, errRoutingUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseCoordinate(q url.Values) (domain.Coordinate, error) {
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" || lngStr == "" {
		return domain.Coordinate{}, fmt.Errorf("%w: lat and lng are required", domain.ErrInvalidInput)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: invalid lat", domain.ErrInvalidInput)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: invalid lng", domain.ErrInvalidInput)
	}
	c := domain.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return domain.Coordinate{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
	}
	return c, nil
}

// parseIntParam returns defaultVal when the parameter is absent
func parseIntParam(q url.Values, key string, defaultVal int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidInput, key)
	}
	return i, nil
}

func parseFloatParam(q url.Values, key string, defaultVal float64) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidInput, key)
	}
	return f, nil
}

// resolveModes maps mode ids onto transport modes. No ids means every mode.
func resolveModes(ids []string) ([]domain.TransportMode, error) {
	if len(ids) == 0 {
		return domain.TransportModes(), nil
	}
	modes := make([]domain.TransportMode, 0, len(ids))
	for _, id := range ids {
		mode, ok := domain.TransportModeByID(strings.TrimSpace(id))
		if !ok {
			return nil, fmt.Errorf("%w: unknown transport mode %q", domain.ErrInvalidInput, id)
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
