package handler

import (
	"log/slog"
	"net/http"
	"time"

	"airportmath/internal/airports"
	"airportmath/internal/domain"
	"airportmath/internal/routing"
	"airportmath/internal/store"
)

type RoutesHandler struct {
	store     *store.AirportStore
	estimator *routing.Estimator
	logger    *slog.Logger
}

func NewRoutesHandler(store *store.AirportStore, estimator *routing.Estimator, logger *slog.Logger) *RoutesHandler {
	return &RoutesHandler{
		store:     store,
		estimator: estimator,
		logger:    logger.With("handler", "routes"),
	}
}

type RouteOption struct {
	domain.RouteInfo
	DurationText string `json:"durationText"`
	DistanceText string `json:"distanceText"`
}

type RoutesResponse struct {
	Airport domain.Airport    `json:"airport"`
	Origin  domain.Coordinate `json:"origin"`
	Routes  []RouteOption     `json:"routes"`
	Count   int               `json:"count"`
}

// ListRoutes estimates the trip from lat/lng to an airport for each
// requested mode. An empty list means the batch could not be estimated.
func (h *RoutesHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	origin, err := parseCoordinate(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	code := q.Get("airport")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing airport parameter")
		return
	}
	modes, err := resolveModes(splitCSV(q.Get("modes")))
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
	airport, ok := airports.FindByCode(dataset, code)
	if !ok {
		respondError(w, http.StatusNotFound, "airport not found")
		return
	}

	routes := h.estimator.EstimateMultiple(r.Context(), origin, airport.Location, modes)
	options := make([]RouteOption, 0, len(routes))
	for _, route := range routes {
		options = append(options, newRouteOption(route))
	}

	h.logger.Debug("ListRoutes response",
		"airport", airport.IATA,
		"modes", len(modes),
		"count", len(options),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, RoutesResponse{
		Airport: airport,
		Origin:  origin,
		Routes:  options,
		Count:   len(options),
	})
}

func newRouteOption(route domain.RouteInfo) RouteOption {
	return RouteOption{
		RouteInfo:    route,
		DurationText: routing.FormatDuration(route.Duration),
		DistanceText: routing.FormatDistance(route.Distance),
	}
}
