package feedback

import "errors"

var (
	ErrCycleNotFound       = errors.New("feedback cycle not found")
	ErrCycleTransition     = errors.New("invalid feedback cycle transition")
	ErrCycleNotOpen        = errors.New("feedback cycle is not accepting changes")
	ErrRequestNotFound     = errors.New("feedback request not found")
	ErrNotReviewer         = errors.New("request belongs to another reviewer")
	ErrAlreadySubmitted    = errors.New("feedback already submitted")
	ErrUnknownRelationship = errors.New("unknown relationship")
	ErrSelfMismatch        = errors.New("self relationship requires reviewer to be the subject")
)
