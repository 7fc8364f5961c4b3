package shared

import (
	"time"

	"hris/internal/platform/localdate"
)

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the calendar day. Empty input yields the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return localdate.ParseLocalDate(value)
}
