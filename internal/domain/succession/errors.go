package succession

import "errors"

var (
	ErrPlanNotFound       = errors.New("succession plan not found")
	ErrCandidateNotFound  = errors.New("succession candidate not found")
	ErrDuplicateCandidate = errors.New("employee is already a candidate for this plan")
	ErrUnknownReadiness   = errors.New("unknown readiness level")
	ErrUnknownCriticality = errors.New("unknown criticality")
	ErrInvalidScore       = errors.New("score must be between 0 and 100")
)
