package policyhandler

import (
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/policy"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *policy.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *policy.Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/policies", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPolicyRead, h.Perms)).Get("/rules", h.handleListRules)
		r.With(middleware.RequirePermission(auth.PermPolicyManage, h.Perms)).Post("/rules", h.handleCreateRule)
		r.With(middleware.RequirePermission(auth.PermPolicyRead, h.Perms)).Get("/rules/{ruleID}", h.handleGetRule)
		r.With(middleware.RequirePermission(auth.PermPolicyManage, h.Perms)).Put("/rules/{ruleID}", h.handleUpdateRule)
		r.With(middleware.RequirePermission(auth.PermPolicyManage, h.Perms)).Post("/rules/{ruleID}/deactivate", h.handleDeactivateRule)
		r.With(middleware.RequirePermission(auth.PermPolicyRead, h.Perms)).Post("/evaluate", h.handleEvaluate)
	})
}

func failPolicy(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, policy.ErrUnknownContext):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "context", Reason: err.Error()}})
	case errors.Is(err, policy.ErrUnknownRuleType):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "ruleType", Reason: err.Error()}})
	case errors.Is(err, policy.ErrUnknownSeverity):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "severity", Reason: err.Error()}})
	case errors.Is(err, policy.ErrInvalidConfig):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "config", Reason: err.Error()}})
	case errors.Is(err, policy.ErrInvalidPayload):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "payload", Reason: err.Error()}})
	case errors.Is(err, policy.ErrRuleNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error(fallbackMessage, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

type rulePayload struct {
	CompanyID *string         `json:"companyId"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Context   string          `json:"context"`
	RuleType  string          `json:"ruleType"`
	Severity  string          `json:"severity"`
	Config    json.RawMessage `json:"config"`
	Active    *bool           `json:"active"`
}

func (p rulePayload) toInput() (policy.RuleInput, *shared.Validator) {
	v := shared.NewValidator()
	v.Required("code", p.Code, "is required")
	v.Required("name", p.Name, "is required")
	v.Required("context", p.Context, "is required")
	v.Enum("context", p.Context, policy.Contexts, "must be a known policy context")
	v.Required("ruleType", p.RuleType, "is required")
	v.Enum("ruleType", p.RuleType, policy.RuleTypes, "must be a known rule type")
	v.Enum("severity", p.Severity, policy.Severities, "must be blocking or warning")
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return policy.RuleInput{
		CompanyID: p.CompanyID,
		Code:      p.Code,
		Name:      p.Name,
		Context:   p.Context,
		RuleType:  strings.TrimSpace(p.RuleType),
		Severity:  p.Severity,
		Config:    p.Config,
		Active:    active,
	}, v
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	filter := policy.RuleFilter{
		Context:         strings.TrimSpace(r.URL.Query().Get("context")),
		IncludeInactive: r.URL.Query().Get("includeInactive") == "true",
	}
	rules, err := h.Service.ListRules(r.Context(), user.TenantID, filter)
	if err != nil {
		failPolicy(w, r, err, "rule_list_failed", "failed to list policy rules")
		return
	}
	if rules == nil {
		rules = []policy.Rule{}
	}
	api.Success(w, rules, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rule, err := h.Service.GetRule(r.Context(), user.TenantID, chi.URLParam(r, "ruleID"))
	if err != nil {
		failPolicy(w, r, err, "rule_get_failed", "failed to load policy rule")
		return
	}
	api.Success(w, rule, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload rulePayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	in, validator := payload.toInput()
	if validator.Reject(w, requestID) {
		return
	}

	rule, err := h.Service.CreateRule(r.Context(), user.TenantID, in)
	if err != nil {
		failPolicy(w, r, err, "rule_create_failed", "failed to create policy rule")
		return
	}
	shared.RecordAudit(r, h.Audit, "policy.rule.create", "policy_rule", rule.ID, nil, rule)
	api.Created(w, rule, requestID)
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	ruleID := chi.URLParam(r, "ruleID")
	var payload rulePayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	in, validator := payload.toInput()
	if validator.Reject(w, requestID) {
		return
	}

	before, err := h.Service.GetRule(r.Context(), user.TenantID, ruleID)
	if err != nil {
		failPolicy(w, r, err, "rule_update_failed", "failed to update policy rule")
		return
	}
	rule, err := h.Service.UpdateRule(r.Context(), user.TenantID, ruleID, in)
	if err != nil {
		failPolicy(w, r, err, "rule_update_failed", "failed to update policy rule")
		return
	}
	shared.RecordAudit(r, h.Audit, "policy.rule.update", "policy_rule", ruleID, before, rule)
	api.Success(w, rule, requestID)
}

func (h *Handler) handleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ruleID := chi.URLParam(r, "ruleID")
	if err := h.Service.DeactivateRule(r.Context(), user.TenantID, ruleID); err != nil {
		failPolicy(w, r, err, "rule_deactivate_failed", "failed to deactivate policy rule")
		return
	}
	shared.RecordAudit(r, h.Audit, "policy.rule.deactivate", "policy_rule", ruleID, map[string]bool{"active": true}, map[string]bool{"active": false})
	api.Success(w, map[string]any{"id": ruleID, "active": false}, middleware.GetRequestID(r.Context()))
}

// handleEvaluate is a dry run: it reports findings without enforcing them.
func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Context   string          `json:"context"`
		CompanyID string          `json:"companyId"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("context", payload.Context, "is required")
	if len(payload.Payload) == 0 {
		validator.Add("payload", "is required")
	}
	if validator.Reject(w, requestID) {
		return
	}

	eval, err := h.Service.Evaluate(r.Context(), user.TenantID, strings.TrimSpace(payload.CompanyID),
		strings.ToLower(strings.TrimSpace(payload.Context)), payload.Payload)
	if err != nil {
		failPolicy(w, r, err, "evaluate_failed", "failed to evaluate policies")
		return
	}
	api.Success(w, eval, requestID)
}
