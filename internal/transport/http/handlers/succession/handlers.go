package successionhandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/succession"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *succession.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *succession.Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/succession", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSuccessionRead, h.Perms)).Get("/plans", h.handleListPlans)
		r.With(middleware.RequirePermission(auth.PermSuccessionManage, h.Perms)).Post("/plans", h.handleCreatePlan)
		r.With(middleware.RequirePermission(auth.PermSuccessionRead, h.Perms)).Get("/plans/{planID}", h.handleGetPlan)
		r.With(middleware.RequirePermission(auth.PermSuccessionManage, h.Perms)).Post("/plans/{planID}/candidates", h.handleAddCandidate)
		r.With(middleware.RequirePermission(auth.PermSuccessionManage, h.Perms)).Post("/candidates/{candidateID}/assessments", h.handleAssess)
	})
}

func failSuccession(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, succession.ErrUnknownReadiness):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "readiness", Reason: err.Error()}})
	case errors.Is(err, succession.ErrUnknownCriticality):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "criticality", Reason: err.Error()}})
	case errors.Is(err, succession.ErrInvalidScore):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "score", Reason: err.Error()}})
	case errors.Is(err, succession.ErrPlanNotFound), errors.Is(err, succession.ErrCandidateNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, succession.ErrDuplicateCandidate):
		api.Fail(w, http.StatusConflict, "duplicate", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error(fallbackMessage, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	plans, err := h.Service.ListPlans(r.Context(), user.TenantID)
	if err != nil {
		failSuccession(w, r, err, "plan_list_failed", "failed to list succession plans")
		return
	}
	if plans == nil {
		plans = []succession.Plan{}
	}
	api.Success(w, plans, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		PositionTitle       string  `json:"positionTitle"`
		IncumbentEmployeeID *string `json:"incumbentEmployeeId"`
		Criticality         string  `json:"criticality"`
		Notes               string  `json:"notes"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("positionTitle", payload.PositionTitle, "is required")
	validator.Enum("criticality", payload.Criticality, succession.Criticalities, "must be low, medium or high")
	if validator.Reject(w, requestID) {
		return
	}

	plan, err := h.Service.CreatePlan(r.Context(), user.TenantID, succession.PlanInput{
		PositionTitle:       payload.PositionTitle,
		IncumbentEmployeeID: payload.IncumbentEmployeeID,
		Criticality:         payload.Criticality,
		Notes:               strings.TrimSpace(payload.Notes),
	})
	if err != nil {
		failSuccession(w, r, err, "plan_create_failed", "failed to create succession plan")
		return
	}
	shared.RecordAudit(r, h.Audit, "succession.plan.create", "succession_plan", plan.ID, nil, plan)
	api.Created(w, plan, requestID)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	plan, err := h.Service.GetPlan(r.Context(), user.TenantID, chi.URLParam(r, "planID"))
	if err != nil {
		failSuccession(w, r, err, "plan_get_failed", "failed to load succession plan")
		return
	}
	api.Success(w, plan, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	planID := chi.URLParam(r, "planID")
	var payload struct {
		EmployeeID string `json:"employeeId"`
		Readiness  string `json:"readiness"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "is required")
	validator.Required("readiness", payload.Readiness, "is required")
	if validator.Reject(w, requestID) {
		return
	}

	candidate, err := h.Service.AddCandidate(r.Context(), user.TenantID, planID,
		strings.TrimSpace(payload.EmployeeID), strings.ToLower(strings.TrimSpace(payload.Readiness)))
	if err != nil {
		failSuccession(w, r, err, "candidate_add_failed", "failed to add succession candidate")
		return
	}
	shared.RecordAudit(r, h.Audit, "succession.candidate.add", "succession_candidate", candidate.ID, nil, candidate)
	api.Created(w, candidate, requestID)
}

func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	candidateID := chi.URLParam(r, "candidateID")
	var payload struct {
		Readiness string   `json:"readiness"`
		Score     *float64 `json:"score"`
		Notes     string   `json:"notes"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("readiness", payload.Readiness, "is required")
	if payload.Score == nil {
		validator.Add("score", "is required")
	}
	if validator.Reject(w, requestID) {
		return
	}

	assessment, err := h.Service.Assess(r.Context(), user.TenantID, candidateID, succession.AssessmentInput{
		Readiness:  strings.ToLower(strings.TrimSpace(payload.Readiness)),
		Score:      *payload.Score,
		Notes:      strings.TrimSpace(payload.Notes),
		AssessedBy: user.UserID,
	})
	if err != nil {
		failSuccession(w, r, err, "assessment_failed", "failed to record readiness assessment")
		return
	}
	shared.RecordAudit(r, h.Audit, "succession.candidate.assess", "succession_candidate", candidateID, nil, assessment)
	api.Created(w, assessment, requestID)
}
