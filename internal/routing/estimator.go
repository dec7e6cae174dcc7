package routing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"airportmath/internal/domain"
	"airportmath/pkg/geo"
	"airportmath/pkg/osrm"
)

// Router is a remote routing provider for driving routes
type Router interface {
	Route(ctx context.Context, from, to domain.Coordinate) (*osrm.Route, error)
}

// Stats counts how estimates were produced
type Stats struct {
	PrimaryHits       int64 `json:"primary_hits"`
	PrimaryFailures   int64 `json:"primary_failures"`
	AnalyticEstimates int64 `json:"analytic_estimates"`
}

type Estimator struct {
	router  Router
	timeout time.Duration
	logger  *slog.Logger

	primaryHits     atomic.Int64
	primaryFailures atomic.Int64
	analytic        atomic.Int64
}

// NewEstimator builds an estimator. A nil router disables the primary path so
// every estimate is analytic. timeout bounds each remote call.
func NewEstimator(router Router, timeout time.Duration, logger *slog.Logger) *Estimator {
	return &Estimator{
		router:  router,
		timeout: timeout,
		logger:  logger.With("component", "route_estimator"),
	}
}

// EstimateRoute returns the travel estimate for a single mode. Driving tries
// the routing provider first; any provider failure falls back to the analytic
// estimate. Only invalid coordinates produce an error.
func (e *Estimator) EstimateRoute(ctx context.Context, origin, destination domain.Coordinate, mode domain.TransportMode) (domain.RouteInfo, error) {
	if !origin.Valid() || !destination.Valid() {
		return domain.RouteInfo{}, fmt.Errorf("estimate route from %v to %v: %w", origin, destination, domain.ErrInvalidInput)
	}

	if mode.ID == domain.ModeDriving && e.router != nil {
		if info, ok := e.primary(ctx, origin, destination, mode); ok {
			return info, nil
		}
	}

	return e.fallback(origin, destination, mode), nil
}

// EstimateToAirport estimates a route to the selected airport
func (e *Estimator) EstimateToAirport(ctx context.Context, origin domain.Coordinate, airport *domain.Airport, mode domain.TransportMode) (domain.RouteInfo, error) {
	if airport == nil {
		return domain.RouteInfo{}, fmt.Errorf("estimate route: no airport selected: %w", domain.ErrInvalidInput)
	}
	return e.EstimateRoute(ctx, origin, airport.Location, mode)
}

// EstimateMultiple estimates every mode concurrently and returns the results
// in the order of modes. If any estimate fails the whole batch is discarded
// and an empty slice is returned.
func (e *Estimator) EstimateMultiple(ctx context.Context, origin, destination domain.Coordinate, modes []domain.TransportMode) []domain.RouteInfo {
	start := time.Now()
	results := make([]domain.RouteInfo, len(modes))
	errs := make([]error, len(modes))

	var wg sync.WaitGroup
	wg.Add(len(modes))
	for i, mode := range modes {
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("estimate %s panicked: %v", mode.ID, r)
				}
			}()
			results[i], errs[i] = e.EstimateRoute(ctx, origin, destination, mode)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			e.logger.Error("route batch failed",
				"mode", modes[i].ID,
				"error", err,
			)
			return []domain.RouteInfo{}
		}
	}

	e.logger.Debug("route batch completed",
		"modes", len(modes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results
}

// Stats returns a snapshot of the estimate counters
func (e *Estimator) Stats() Stats {
	return Stats{
		PrimaryHits:       e.primaryHits.Load(),
		PrimaryFailures:   e.primaryFailures.Load(),
		AnalyticEstimates: e.analytic.Load(),
	}
}

func (e *Estimator) primary(ctx context.Context, origin, destination domain.Coordinate, mode domain.TransportMode) (domain.RouteInfo, bool) {
	start := time.Now()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	route, err := e.router.Route(ctx, origin, destination)
	if err != nil {
		e.primaryFailures.Add(1)
		e.logger.Warn("routing provider failed, using estimate",
			"mode", mode.ID,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return domain.RouteInfo{}, false
	}

	e.primaryHits.Add(1)
	e.logger.Debug("routing provider answered",
		"mode", mode.ID,
		"distance_m", route.DistanceMeters,
		"duration_s", route.DurationSeconds,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	instructions := route.Instructions
	if instructions == nil {
		instructions = []string{}
	}
	return domain.RouteInfo{
		Duration:     int(math.Round(route.DurationSeconds / 60)),
		Distance:     route.DistanceMeters,
		Mode:         mode,
		Instructions: instructions,
	}, true
}

// fallback estimates from the straight-line distance inflated by a per-mode
// factor and divided by the mode's average speed.
func (e *Estimator) fallback(origin, destination domain.Coordinate, mode domain.TransportMode) domain.RouteInfo {
	e.analytic.Add(1)
	return Estimate(origin, destination, mode)
}

// Estimate is the network-free analytic estimate
func Estimate(origin, destination domain.Coordinate, mode domain.TransportMode) domain.RouteInfo {
	f := factorFor(mode.ID)
	adjustedMeters := geo.DistanceMeters(origin, destination) * f.DistanceFactor
	minutes := adjustedMeters / 1000 / f.SpeedKmh * 60

	return domain.RouteInfo{
		Duration:     int(math.Round(minutes)),
		Distance:     math.Round(adjustedMeters),
		Mode:         mode,
		Instructions: []string{fmt.Sprintf("Estimated %s route to airport", strings.ToLower(mode.Name))},
		Estimated:    true,
	}
}
