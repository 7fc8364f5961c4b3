package performance

import "errors"

var (
	ErrInvalidTarget     = errors.New("target must be greater than zero")
	ErrInvalidThresholds = errors.New("threshold must be positive and not above stretch")
	ErrGoalNotFound      = errors.New("goal not found")
	ErrCycleNotFound     = errors.New("appraisal cycle not found")
	ErrCycleTransition   = errors.New("invalid appraisal cycle transition")
	ErrUnknownScale      = errors.New("unknown rating scale")
	ErrRatingOutOfRange  = errors.New("rating outside scale")
)
