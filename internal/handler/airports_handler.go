package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"airportmath/internal/airports"
	"airportmath/internal/domain"
	"airportmath/internal/store"
)

const defaultSearchLimit = 10

type AirportsHandler struct {
	store  *store.AirportStore
	logger *slog.Logger
}

func NewAirportsHandler(store *store.AirportStore, logger *slog.Logger) *AirportsHandler {
	return &AirportsHandler{
		store:  store,
		logger: logger.With("handler", "airports"),
	}
}

func (h *AirportsHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	origin, err := parseCoordinate(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxResults, err := parseIntParam(q, "maxResults", airports.DefaultMaxResults)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxDistance, err := parseFloatParam(q, "maxDistanceKm", airports.DefaultMaxDistanceKm)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dataset, err := h.store.Airports(r.Context())
	if err != nil {
		requestLogger(h.logger, r).Error("airport dataset unavailable", "error", err)
		respondError(w, http.StatusServiceUnavailable, "airport dataset unavailable")
		return
	}

	result := airports.Nearby(origin, dataset, maxResults, maxDistance)

	h.logger.Debug("Nearby response",
		"lat", origin.Lat,
		"lng", origin.Lng,
		"count", len(result.Airports),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, result)
}

type SearchResponse struct {
	Airports []domain.Airport `json:"airports"`
	Count    int              `json:"count"`
}

func (h *AirportsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	limit, err := parseIntParam(q, "limit", defaultSearchLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dataset, err := h.store.Airports(r.Context())
	if err != nil {
		requestLogger(h.logger, r).Error("airport dataset unavailable", "error", err)
		respondError(w, http.StatusServiceUnavailable, "airport dataset unavailable")
		return
	}

	found := airports.SearchByText(dataset, query, limit)
	respondJSON(w, http.StatusOK, SearchResponse{
		Airports: found,
		Count:    len(found),
	})
}

func (h *AirportsHandler) GetAirport(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing airport code")
		return
	}

	dataset, err := h.store.Airports(r.Context())
	if err != nil {
		requestLogger(h.logger, r).Error("airport dataset unavailable", "error", err)
		respondError(w, http.StatusServiceUnavailable, "airport dataset unavailable")
		return
	}

	airport, ok := airports.FindByCode(dataset, code)
	if !ok {
		respondError(w, http.StatusNotFound, "airport not found")
		return
	}

	respondJSON(w, http.StatusOK, airport)
}

type TransportModesResponse struct {
	Modes []domain.TransportMode `json:"modes"`
}

func (h *AirportsHandler) TransportModes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	respondJSON(w, http.StatusOK, TransportModesResponse{Modes: domain.TransportModes()})
}
