package leave

import "errors"

var (
	ErrInvalidRange        = errors.New("end date before start date")
	ErrInvalidHalfDay      = errors.New("invalid half-day range")
	ErrTypeNotFound        = errors.New("leave type not found")
	ErrDuplicateType       = errors.New("leave type code already exists")
	ErrRequestNotFound     = errors.New("leave request not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrDocumentRequired    = errors.New("leave type requires a supporting document")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrInvalidState        = errors.New("leave request is not pending")
	ErrForbidden           = errors.New("not allowed to act on this leave request")
)
