package routing

import "airportmath/internal/domain"

// modeFactor approximates real-world routing for the analytic fallback
type modeFactor struct {
	SpeedKmh       float64
	DistanceFactor float64
}

var modeFactors = map[string]modeFactor{
	domain.ModeDriving:         {SpeedKmh: 50, DistanceFactor: 1.3},
	domain.ModeCycling:         {SpeedKmh: 15, DistanceFactor: 1.2},
	domain.ModeWalking:         {SpeedKmh: 5, DistanceFactor: 1.15},
	domain.ModePublicTransport: {SpeedKmh: 25, DistanceFactor: 1.5}, // transfers and waiting
}

func factorFor(modeID string) modeFactor {
	if f, ok := modeFactors[modeID]; ok {
		return f
	}
	return modeFactors[domain.ModeDriving]
}
