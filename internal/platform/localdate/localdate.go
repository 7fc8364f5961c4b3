// Package localdate handles calendar dates (YYYY-MM-DD) without timezone drift.
// Dates are anchored at midnight UTC so that formatting never shifts the day.
package localdate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseLocalDate parses YYYY-MM-DD. A full RFC3339 timestamp is accepted and
// truncated to its own calendar day, ignoring the offset.
func ParseLocalDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if parsed, err := time.Parse(Layout, value); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return FromTime(parsed), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, value)
}

// ToDateString formats the calendar day of t as YYYY-MM-DD.
func ToDateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// FromTime keeps the wall-clock calendar day of t in its own location.
func FromTime(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Today() time.Time {
	return FromTime(time.Now())
}

// Deadline is a named date that must fall inside a cycle window.
type Deadline struct {
	Field string
	Date  time.Time
}

type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidateCycleDates rejects start >= end and flags every deadline outside
// [start, end]. Zero-valued deadlines are optional and skipped.
func ValidateCycleDates(start, end time.Time, deadlines ...Deadline) []Issue {
	var issues []Issue
	if start.IsZero() {
		issues = append(issues, Issue{Field: "startDate", Reason: "is required"})
	}
	if end.IsZero() {
		issues = append(issues, Issue{Field: "endDate", Reason: "is required"})
	}
	if len(issues) > 0 {
		return issues
	}
	if !start.Before(end) {
		issues = append(issues, Issue{Field: "endDate", Reason: "must be after startDate"})
	}
	for _, deadline := range deadlines {
		if deadline.Date.IsZero() {
			continue
		}
		if deadline.Date.Before(start) || deadline.Date.After(end) {
			issues = append(issues, Issue{Field: deadline.Field, Reason: "must fall between startDate and endDate"})
		}
	}
	return issues
}

// CompletedYears counts whole years between from and to.
func CompletedYears(from, to time.Time) int {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	years := to.Year() - from.Year()
	anniversary := time.Date(to.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	if FromTime(to).Before(anniversary) {
		years--
	}
	return years
}

// CycleError carries the issues found by ValidateCycleDates.
type CycleError struct {
	Issues []Issue
}

func (e *CycleError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid cycle dates"
	}
	return fmt.Sprintf("invalid cycle dates: %s %s", e.Issues[0].Field, e.Issues[0].Reason)
}
