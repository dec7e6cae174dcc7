package departure

import (
	"fmt"
	"time"

	"airportmath/internal/domain"
)

// Now is the calculator's clock reading
func (c *Calculator) Now() time.Time {
	return c.clock.Now()
}

// IsOverdue reports whether leaveTime has already passed. Leaving exactly
// now is not overdue.
func (c *Calculator) IsOverdue(leaveTime time.Time) bool {
	return leaveTime.Before(c.clock.Now())
}

// TimeUntil splits the whole minutes between now and leaveTime
func (c *Calculator) TimeUntil(leaveTime time.Time) domain.TimeUntil {
	diff := leaveTime.Sub(c.clock.Now())
	overdue := diff < 0
	if overdue {
		diff = -diff
	}
	total := int(diff / time.Minute)
	return domain.TimeUntil{
		Hours:        total / 60,
		Minutes:      total % 60,
		TotalMinutes: total,
		IsOverdue:    overdue,
	}
}

// Summarize renders the status line for a calculation: overdue, under an
// hour, or an hour or more to go.
func (c *Calculator) Summarize(calc domain.DepartureCalculation) string {
	return SummaryFor(c.TimeUntil(calc.LeaveTime))
}

// SummaryFor renders a TimeUntil as the user-facing status line
func SummaryFor(t domain.TimeUntil) string {
	switch {
	case t.IsOverdue:
		return fmt.Sprintf("You should have left %dh %dm ago!", t.Hours, t.Minutes)
	case t.TotalMinutes < 60:
		return fmt.Sprintf("Leave in %d minutes!", t.TotalMinutes)
	default:
		return fmt.Sprintf("Leave in %dh %dm", t.Hours, t.Minutes)
	}
}

// FormatClock renders a time as "3:04 PM" (or "15:04"), optionally prefixed
// with the date as "Mon, Jan 2".
func FormatClock(t time.Time, use24Hour, includeDate bool) string {
	layout := "3:04 PM"
	if use24Hour {
		layout = "15:04"
	}
	if includeDate {
		layout = "Mon, Jan 2, " + layout
	}
	return t.Format(layout)
}
