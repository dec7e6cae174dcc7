package departure

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"airportmath/internal/domain"
)

// gateWaitMinutes is indexed by the clamped safety margin level
var gateWaitMinutes = [domain.MaxSafetyMarginLevel + 1]int{10, 30, 45, 60, 90, 120}

var flightTimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// RouteDeparture pairs a calculation with the route it was computed for
type RouteDeparture struct {
	Calculation domain.DepartureCalculation `json:"calculation"`
	Route       domain.RouteInfo            `json:"route"`
}

// Calculator turns a flight, a route and preferences into a leave-by time.
// Its only state is the clock.
type Calculator struct {
	clock Clock
}

func NewCalculator(clock Clock) *Calculator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Calculator{clock: clock}
}

// CalculateDeparture computes the leave time for one route. A nil prefs uses
// domain.DefaultPreferences. The only error is an unparseable departure time.
func (c *Calculator) CalculateDeparture(flight domain.FlightInfo, route domain.RouteInfo, prefs *domain.DeparturePreferences) (domain.DepartureCalculation, error) {
	flightTime, err := c.flightTime(flight.DepartureTime)
	if err != nil {
		return domain.DepartureCalculation{}, err
	}

	p := domain.DefaultPreferences()
	if prefs != nil {
		p = *prefs
	}
	level := ClampLevel(p.SafetyMarginLevel)
	additional := max(p.AdditionalBuffer, 0)
	travel := max(route.Duration, 0)

	gateWait := gateWaitMinutes[level]
	baggage := 0
	if p.HasCheckedBags {
		baggage = 10 + 4*level
	}
	security := 10 + 7*level
	passport := 0
	if p.NeedsPassportControl {
		passport = 10 + 6*level
	}
	safety := 5 * level

	total := gateWait + baggage + security + passport + safety + additional

	return domain.DepartureCalculation{
		FlightTime:       flightTime,
		CheckInBuffer:    gateWait,
		GateWait:         gateWait,
		TravelTime:       travel,
		BaggageTime:      baggage,
		SecurityTime:     security,
		PassportTime:     passport,
		SafetyBuffer:     safety,
		AdditionalBuffer: additional,
		TotalBuffer:      total,
		LeaveTime:        flightTime.Add(-time.Duration(travel+total) * time.Minute),
		ArrivalDeadline:  flightTime.Add(-time.Duration(gateWait) * time.Minute),
		Breakdown: domain.Breakdown{
			Travel:   travel,
			CheckIn:  gateWait,
			Baggage:  baggage,
			Security: security,
			Passport: passport,
			Safety:   safety + additional,
		},
	}, nil
}

// CalculateForRoutes runs CalculateDeparture for each route, keeping order
func (c *Calculator) CalculateForRoutes(flight domain.FlightInfo, routes []domain.RouteInfo, prefs *domain.DeparturePreferences) ([]RouteDeparture, error) {
	out := make([]RouteDeparture, 0, len(routes))
	for _, r := range routes {
		calc, err := c.CalculateDeparture(flight, r, prefs)
		if err != nil {
			return nil, err
		}
		out = append(out, RouteDeparture{Calculation: calc, Route: r})
	}
	return out, nil
}

// flightTime places "HH:MM" on today's date in the clock's location. No
// midnight rollover: a time earlier than now stays in the past.
func (c *Calculator) flightTime(hhmm string) (time.Time, error) {
	hhmm = strings.TrimSpace(hhmm)
	if !ValidFlightTime(hhmm) {
		return time.Time{}, fmt.Errorf("departure time %q: %w", hhmm, domain.ErrInvalidInput)
	}
	hStr, mStr, _ := strings.Cut(hhmm, ":")
	h, _ := strconv.Atoi(hStr)
	m, _ := strconv.Atoi(mStr)

	now := c.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location()), nil
}

// ClampLevel limits a safety margin level to 0..5
func ClampLevel(level int) int {
	return min(max(level, domain.MinSafetyMarginLevel), domain.MaxSafetyMarginLevel)
}

// ValidFlightTime reports whether s is a 24h "H:MM" or "HH:MM" time
func ValidFlightTime(s string) bool {
	return flightTimePattern.MatchString(s)
}
