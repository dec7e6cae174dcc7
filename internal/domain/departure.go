package domain

import "time"

// Safety margin bounds and the level used when no preferences are given
const (
	MinSafetyMarginLevel     = 0
	MaxSafetyMarginLevel     = 5
	DefaultSafetyMarginLevel = 3
)

// FlightInfo holds the user's flight. DepartureTime is a local "HH:MM" on
// the current calendar day.
type FlightInfo struct {
	DepartureTime   string   `json:"departureTime"`
	SelectedAirport *Airport `json:"selectedAirport,omitempty"`
}

// DeparturePreferences tune how conservative the leave-by time is
type DeparturePreferences struct {
	HasCheckedBags       bool `json:"hasCheckedBags"`
	NeedsPassportControl bool `json:"needsPassportControl"`
	SafetyMarginLevel    int  `json:"safetyMarginLevel"`
	AdditionalBuffer     int  `json:"additionalBuffer"` // minutes
}

// DefaultPreferences is applied when the caller supplies none
func DefaultPreferences() DeparturePreferences {
	return DeparturePreferences{SafetyMarginLevel: DefaultSafetyMarginLevel}
}

// Breakdown is the display split of the time budget, in minutes
type Breakdown struct {
	Travel   int `json:"travel"`
	CheckIn  int `json:"checkIn"`
	Baggage  int `json:"baggage"`
	Security int `json:"security"`
	Passport int `json:"passport"`
	Safety   int `json:"safety"`
}

// Total sums every component of the breakdown
func (b Breakdown) Total() int {
	return b.Travel + b.CheckIn + b.Baggage + b.Security + b.Passport + b.Safety
}

// DepartureCalculation is the leave-by result for one route. All buffers are
// minutes.
type DepartureCalculation struct {
	FlightTime       time.Time `json:"flightTime"`
	CheckInBuffer    int       `json:"checkInBuffer"`
	GateWait         int       `json:"gateWait"`
	TravelTime       int       `json:"travelTime"`
	BaggageTime      int       `json:"baggageTime"`
	SecurityTime     int       `json:"securityTime"`
	PassportTime     int       `json:"passportTime"`
	SafetyBuffer     int       `json:"safetyBuffer"`
	AdditionalBuffer int       `json:"additionalBuffer"`
	TotalBuffer      int       `json:"totalBuffer"`
	LeaveTime        time.Time `json:"leaveTime"`
	ArrivalDeadline  time.Time `json:"arrivalDeadline"`
	Breakdown        Breakdown `json:"breakdown"`
}

// TimeUntil is the distance between now and a leave time
type TimeUntil struct {
	Hours        int  `json:"hours"`
	Minutes      int  `json:"minutes"`
	TotalMinutes int  `json:"totalMinutes"`
	IsOverdue    bool `json:"isOverdue"`
}
