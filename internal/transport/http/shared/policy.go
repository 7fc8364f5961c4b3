package shared

import (
	"errors"
	"net/http"

	"hris/internal/domain/policy"
	"hris/internal/transport/http/api"
)

// FailPolicy writes the 422 for a blocked policy decision and reports whether
// err was one.
func FailPolicy(w http.ResponseWriter, requestID string, err error) bool {
	var decision *policy.DecisionError
	if !errors.As(err, &decision) {
		return false
	}
	code, message := "policy_violation", "blocked by policy"
	if errors.Is(decision.Err, policy.ErrPolicyWarning) {
		code, message = "policy_warning", "policy warnings need a justification"
	}
	api.FailWithDetails(w, http.StatusUnprocessableEntity, code, message, decision.Evaluation, requestID)
	return true
}
