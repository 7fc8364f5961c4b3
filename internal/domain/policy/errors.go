package policy

import "errors"

var (
	ErrRuleNotFound        = errors.New("policy rule not found")
	ErrUnknownContext      = errors.New("unknown policy context")
	ErrUnknownRuleType     = errors.New("unknown rule type")
	ErrUnknownSeverity     = errors.New("unknown severity")
	ErrInvalidConfig       = errors.New("invalid rule config")
	ErrInvalidPayload      = errors.New("payload must be a JSON object")
	ErrPolicyViolation     = errors.New("policy violation")
	ErrPolicyWarning       = errors.New("policy warning requires justification")
	ErrJustificationNeeded = errors.New("override justification is required")
)

// DecisionError carries the evaluation that blocked an operation.
type DecisionError struct {
	Err        error
	Evaluation Evaluation
}

func (e *DecisionError) Error() string { return e.Err.Error() }
func (e *DecisionError) Unwrap() error { return e.Err }
