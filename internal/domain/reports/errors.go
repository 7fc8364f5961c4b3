package reports

import "errors"

var (
	ErrNoEmployeeRecord = errors.New("no employee record for user")
	ErrForbidden        = errors.New("dashboard not available for role")
)
