package domain

// Transport mode identifiers
const (
	ModeDriving         = "driving-car"
	ModeWalking         = "foot-walking"
	ModeCycling         = "cycling-regular"
	ModePublicTransport = "public-transport"
)

// TransportMode describes one way of getting to the airport
type TransportMode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var transportModes = []TransportMode{
	{ID: ModeDriving, Name: "Driving", Icon: "🚗", Description: "Drive your own car"},
	{ID: ModeWalking, Name: "Walking", Icon: "🚶", Description: "Walk to the airport"},
	{ID: ModeCycling, Name: "Cycling", Icon: "🚴", Description: "Bike to the airport"},
	{ID: ModePublicTransport, Name: "Public Transit", Icon: "🚌", Description: "Use public transportation"},
}

// TransportModes returns the fixed set of supported modes in display order
func TransportModes() []TransportMode {
	out := make([]TransportMode, len(transportModes))
	copy(out, transportModes)
	return out
}

// TransportModeByID looks up a supported mode
func TransportModeByID(id string) (TransportMode, bool) {
	for _, m := range transportModes {
		if m.ID == id {
			return m, true
		}
	}
	return TransportMode{}, false
}

// RouteInfo is the travel estimate for a single mode
type RouteInfo struct {
	Duration     int           `json:"duration"` // minutes
	Distance     float64       `json:"distance"` // meters
	Mode         TransportMode `json:"mode"`
	Instructions []string      `json:"instructions,omitempty"`
	Estimated    bool          `json:"estimated"`
}
