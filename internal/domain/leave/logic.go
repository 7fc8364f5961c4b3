package leave

import (
	"time"

	"hris/internal/domain/payroll/statutory"
	"hris/internal/platform/localdate"
)

// CalculateRequestDays counts calendar days inclusively; a half-day boundary removes half a day.
// A single day cannot be half at both ends.
func CalculateRequestDays(start, end time.Time, startHalf, endHalf bool) (float64, error) {
	start, end = localdate.FromTime(start), localdate.FromTime(end)
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	days := float64(int(end.Sub(start).Hours()/24) + 1)
	if start.Equal(end) && startHalf && endHalf {
		return 0, ErrInvalidHalfDay
	}
	if startHalf {
		days -= 0.5
	}
	if endHalf {
		days -= 0.5
	}
	return days, nil
}

// VacationGrant reports the statutory days owed for the latest completed service year.
// ok is false when the employee has not completed a year or the grant was already applied.
func VacationGrant(c GrantCandidate, today time.Time) (days int, grantYear int, ok bool) {
	years := localdate.CompletedYears(c.HireDate, today)
	if years < 1 {
		return 0, 0, false
	}
	grantYear = c.HireDate.Year() + years
	if c.LastGrantYear != nil && *c.LastGrantYear >= grantYear {
		return 0, 0, false
	}
	return statutory.VacationDays(years), grantYear, true
}
