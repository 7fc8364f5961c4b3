package statutory

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid statutory input")
	ErrTableNotFound = errors.New("statutory table not found")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// MissingTableError reports which table is absent for a tax year.
type MissingTableError struct {
	Year  int
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("%s table not found for year %d", e.Table, e.Year)
}

func (e *MissingTableError) Unwrap() error {
	return ErrTableNotFound
}

func missing(year int, table string) error {
	return &MissingTableError{Year: year, Table: table}
}
