package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"airportmath/internal/airports"
	"airportmath/internal/departure"
	"airportmath/internal/domain"
	"airportmath/internal/routing"
	"airportmath/internal/store"
)

const maxRequestBody = 64 << 10

type DepartureHandler struct {
	store      *store.AirportStore
	estimator  *routing.Estimator
	calculator *departure.Calculator
	logger     *slog.Logger
}

func NewDepartureHandler(store *store.AirportStore, estimator *routing.Estimator, calculator *departure.Calculator, logger *slog.Logger) *DepartureHandler {
	return &DepartureHandler{
		store:      store,
		estimator:  estimator,
		calculator: calculator,
		logger:     logger.With("handler", "departures"),
	}
}

// DepartureRequest is accepted by POST /v1/departures and by the live
// countdown socket.
type DepartureRequest struct {
	DepartureTime string                       `json:"departureTime"`
	Airport       string                       `json:"airport"`
	Origin        domain.Coordinate            `json:"origin"`
	Preferences   *domain.DeparturePreferences `json:"preferences,omitempty"`
	Modes         []string                     `json:"modes,omitempty"`
	Use24Hour     bool                         `json:"use24Hour,omitempty"`
}

type DepartureOption struct {
	Route       RouteOption                 `json:"route"`
	Calculation domain.DepartureCalculation `json:"calculation"`
	TimeUntil   domain.TimeUntil            `json:"timeUntil"`
	Summary     string                      `json:"summary"`
	LeaveAt     string                      `json:"leaveAt"`
	ArriveBy    string                      `json:"arriveBy"`
	FlightAt    string                      `json:"flightAt"`
	BufferText  string                      `json:"bufferText"`
}

type DepartureResponse struct {
	Airport    domain.Airport    `json:"airport"`
	Options    []DepartureOption `json:"options"`
	ServerTime time.Time         `json:"serverTime"`
}

type departurePlan struct {
	airport    domain.Airport
	departures []departure.RouteDeparture
}

func (h *DepartureHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req DepartureRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	plan, err := h.plan(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			requestLogger(h.logger, r).Error("departure calculation failed", "error", err)
		}
		respondError(w, status, err.Error())
		return
	}

	options := make([]DepartureOption, 0, len(plan.departures))
	for _, d := range plan.departures {
		options = append(options, h.option(d, req.Use24Hour))
	}

	h.logger.Debug("Calculate response",
		"airport", plan.airport.IATA,
		"departure_time", req.DepartureTime,
		"options", len(options),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, DepartureResponse{
		Airport:    plan.airport,
		Options:    options,
		ServerTime: h.calculator.Now(),
	})
}

// plan validates a request, estimates every requested mode and computes the
// leave-by time for each route.
func (h *DepartureHandler) plan(ctx context.Context, req DepartureRequest) (departurePlan, error) {
	if !departure.ValidFlightTime(strings.TrimSpace(req.DepartureTime)) {
		return departurePlan{}, fmt.Errorf("%w: departureTime must be HH:MM", domain.ErrInvalidInput)
	}
	if !req.Origin.Valid() {
		return departurePlan{}, fmt.Errorf("%w: origin coordinates out of range", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Airport) == "" {
		return departurePlan{}, fmt.Errorf("%w: airport is required", domain.ErrInvalidInput)
	}
	modes, err := resolveModes(req.Modes)
	if err != nil {
		return departurePlan{}, err
	}

	dataset, err := h.store.Airports(ctx)
	if err != nil {
		return departurePlan{}, fmt.Errorf("airport dataset unavailable: %w", err)
	}
	airport, ok := airports.FindByCode(dataset, req.Airport)
	if !ok {
		return departurePlan{}, fmt.Errorf("%w: %s", domain.ErrAirportNotFound, req.Airport)
	}

	routes := h.estimator.EstimateMultiple(ctx, req.Origin, airport.Location, modes)
	if len(routes) == 0 {
		return departurePlan{}, errRoutingUnavailable
	}

	flight := domain.FlightInfo{
		DepartureTime:   req.DepartureTime,
		SelectedAirport: &airport,
	}
	departures, err := h.calculator.CalculateForRoutes(flight, routes, req.Preferences)
	if err != nil {
		return departurePlan{}, err
	}

	return departurePlan{airport: airport, departures: departures}, nil
}

func (h *DepartureHandler) option(d departure.RouteDeparture, use24Hour bool) DepartureOption {
	calc := d.Calculation
	until := h.calculator.TimeUntil(calc.LeaveTime)
	return DepartureOption{
		Route:       newRouteOption(d.Route),
		Calculation: calc,
		TimeUntil:   until,
		Summary:     departure.SummaryFor(until),
		LeaveAt:     departure.FormatClock(calc.LeaveTime, use24Hour, false),
		ArriveBy:    departure.FormatClock(calc.ArrivalDeadline, use24Hour, false),
		FlightAt:    departure.FormatClock(calc.FlightTime, use24Hour, false),
		BufferText:  routing.FormatDuration(calc.TotalBuffer),
	}
}
