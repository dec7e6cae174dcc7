package routing

import (
	"fmt"

	"airportmath/pkg/geo"
)

// FormatDuration renders minutes as "45m", "2h" or "1h 30m"
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatDistance renders meters as "850m", "4.2km" or "37km"
func FormatDistance(meters float64) string {
	return geo.FormatDistance(meters / 1000)
}
