package feedbackhandler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/feedback"
	"hris/internal/domain/performance"
	"hris/internal/platform/localdate"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *feedback.Service
	Access  shared.EmployeeAccess
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *feedback.Service, access shared.EmployeeAccess, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Access: access, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/feedback", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFeedbackRead, h.Perms)).Get("/cycles", h.handleListCycles)
		r.With(middleware.RequirePermission(auth.PermFeedbackManage, h.Perms)).Post("/cycles", h.handleCreateCycle)
		r.With(middleware.RequirePermission(auth.PermFeedbackManage, h.Perms)).Post("/cycles/{cycleID}/launch", h.handleLaunchCycle)
		r.With(middleware.RequirePermission(auth.PermFeedbackManage, h.Perms)).Post("/cycles/{cycleID}/close", h.handleCloseCycle)
		r.With(middleware.RequirePermission(auth.PermFeedbackManage, h.Perms)).Post("/cycles/{cycleID}/requests", h.handleAssignReviewers)
		r.With(middleware.RequirePermission(auth.PermFeedbackRead, h.Perms)).Get("/cycles/{cycleID}/results", h.handleResults)
		r.With(middleware.RequirePermission(auth.PermFeedbackRead, h.Perms)).Get("/requests/pending", h.handlePendingRequests)
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite, h.Perms)).Post("/requests/{requestID}/submit", h.handleSubmit)
	})
}

func failFeedback(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	var cycleErr *localdate.CycleError
	switch {
	case errors.As(err, &cycleErr):
		issues := make([]shared.ValidationIssue, 0, len(cycleErr.Issues))
		for _, issue := range cycleErr.Issues {
			issues = append(issues, shared.ValidationIssue{Field: issue.Field, Reason: issue.Reason})
		}
		shared.FailValidation(w, requestID, issues)
	case errors.Is(err, performance.ErrUnknownScale):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "ratingScale", Reason: err.Error()}})
	case errors.Is(err, performance.ErrRatingOutOfRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "rating", Reason: err.Error()}})
	case errors.Is(err, feedback.ErrUnknownRelationship), errors.Is(err, feedback.ErrSelfMismatch):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "relationship", Reason: err.Error()}})
	case errors.Is(err, feedback.ErrCycleNotFound), errors.Is(err, feedback.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, feedback.ErrNotReviewer):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, feedback.ErrCycleTransition), errors.Is(err, feedback.ErrCycleNotOpen), errors.Is(err, feedback.ErrAlreadySubmitted):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error(fallbackMessage, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) selfEmployee(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, _ := middleware.GetUser(r.Context())
	selfID, err := h.Access.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
	if err != nil {
		requestctx.Logger(r.Context()).Error("employee lookup failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to resolve employee", middleware.GetRequestID(r.Context()))
		return "", false
	}
	if selfID == "" {
		api.Fail(w, http.StatusForbidden, "no_employee_record", "caller has no employee record", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return selfID, true
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	cycles, err := h.Service.ListCycles(r.Context(), user.TenantID)
	if err != nil {
		failFeedback(w, r, err, "cycle_list_failed", "failed to list feedback cycles")
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Name               string `json:"name"`
		StartDate          string `json:"startDate"`
		EndDate            string `json:"endDate"`
		NominationDeadline string `json:"nominationDeadline"`
		ResponseDeadline   string `json:"responseDeadline"`
		RatingScale        string `json:"ratingScale"`
		AnonymityThreshold int    `json:"anonymityThreshold"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "is required")
	validator.Enum("ratingScale", payload.RatingScale, performance.RatingScaleNames, "must be one of 1-5, 1-4, 1-10, 0-100")
	if payload.AnonymityThreshold < 0 {
		validator.Add("anonymityThreshold", "must not be negative")
	}
	start, _ := validator.Date("startDate", payload.StartDate)
	end, _ := validator.Date("endDate", payload.EndDate)
	in := feedback.CycleInput{
		Name:               strings.TrimSpace(payload.Name),
		StartDate:          start,
		EndDate:            end,
		NominationDeadline: optionalDate(validator, "nominationDeadline", payload.NominationDeadline),
		ResponseDeadline:   optionalDate(validator, "responseDeadline", payload.ResponseDeadline),
		RatingScale:        payload.RatingScale,
		AnonymityThreshold: payload.AnonymityThreshold,
	}
	if !start.IsZero() && !end.IsZero() {
		for _, issue := range feedback.ValidateCycle(in) {
			validator.Add(issue.Field, issue.Reason)
		}
	}
	if validator.Reject(w, requestID) {
		return
	}

	cycle, err := h.Service.CreateCycle(r.Context(), user.TenantID, in)
	if err != nil {
		failFeedback(w, r, err, "cycle_create_failed", "failed to create feedback cycle")
		return
	}
	shared.RecordAudit(r, h.Audit, "feedback.cycle.create", "feedback_cycle", cycle.ID, nil, cycle)
	api.Created(w, cycle, requestID)
}

func optionalDate(v *shared.Validator, field, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parsed, ok := v.Date(field, raw)
	if !ok {
		return nil
	}
	return &parsed
}

func (h *Handler) handleLaunchCycle(w http.ResponseWriter, r *http.Request) {
	h.transitionCycle(w, r, "feedback.cycle.launch", h.Service.LaunchCycle)
}

func (h *Handler) handleCloseCycle(w http.ResponseWriter, r *http.Request) {
	h.transitionCycle(w, r, "feedback.cycle.close", h.Service.CloseCycle)
}

func (h *Handler) transitionCycle(w http.ResponseWriter, r *http.Request, action string, transition func(ctx context.Context, tenantID, cycleID string) (feedback.Cycle, error)) {
	user, _ := middleware.GetUser(r.Context())
	cycleID := chi.URLParam(r, "cycleID")
	cycle, err := transition(r.Context(), user.TenantID, cycleID)
	if err != nil {
		failFeedback(w, r, err, "cycle_update_failed", "failed to update feedback cycle")
		return
	}
	shared.RecordAudit(r, h.Audit, action, "feedback_cycle", cycleID, nil, map[string]string{"status": cycle.Status})
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignReviewers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	cycleID := chi.URLParam(r, "cycleID")
	var payload struct {
		SubjectEmployeeID string                `json:"subjectEmployeeId"`
		Assignments       []feedback.Assignment `json:"assignments"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	validator := shared.NewValidator()
	validator.Required("subjectEmployeeId", payload.SubjectEmployeeID, "is required")
	if len(payload.Assignments) == 0 {
		validator.Add("assignments", "must contain at least one reviewer")
	}
	for i := range payload.Assignments {
		a := &payload.Assignments[i]
		a.ReviewerEmployeeID = strings.TrimSpace(a.ReviewerEmployeeID)
		a.Relationship = strings.ToLower(strings.TrimSpace(a.Relationship))
		if a.ReviewerEmployeeID == "" {
			validator.Add("assignments.reviewerEmployeeId", "is required")
		}
		validator.Enum("assignments.relationship", a.Relationship, feedback.Relationships, "must be self, manager, peer, direct_report or external")
	}
	if validator.Reject(w, requestID) {
		return
	}

	created, err := h.Service.AssignReviewers(r.Context(), user.TenantID, cycleID, strings.TrimSpace(payload.SubjectEmployeeID), payload.Assignments)
	if err != nil {
		failFeedback(w, r, err, "assign_failed", "failed to assign reviewers")
		return
	}
	shared.RecordAudit(r, h.Audit, "feedback.requests.assign", "feedback_cycle", cycleID, nil, map[string]any{
		"subjectEmployeeId": payload.SubjectEmployeeID,
		"created":           created,
	})
	api.Created(w, map[string]int{"created": created}, requestID)
}

func (h *Handler) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	selfID, ok := h.selfEmployee(w, r)
	if !ok {
		return
	}
	requests, err := h.Service.PendingRequests(r.Context(), user.TenantID, selfID)
	if err != nil {
		failFeedback(w, r, err, "request_list_failed", "failed to list feedback requests")
		return
	}
	if requests == nil {
		requests = []feedback.Request{}
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Rating   *float64 `json:"rating"`
		Comments string   `json:"comments"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if payload.Rating == nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "rating", Reason: "is required"}})
		return
	}
	selfID, ok := h.selfEmployee(w, r)
	if !ok {
		return
	}

	feedbackID := chi.URLParam(r, "requestID")
	req, err := h.Service.Submit(r.Context(), user.TenantID, feedbackID, selfID, *payload.Rating, strings.TrimSpace(payload.Comments))
	if err != nil {
		failFeedback(w, r, err, "submit_failed", "failed to submit feedback")
		return
	}
	shared.RecordAudit(r, h.Audit, "feedback.request.submit", "feedback_request", feedbackID, nil, map[string]string{"status": req.Status})
	api.Success(w, req, requestID)
}

// handleResults aggregates one subject's responses. The subject defaults to
// the caller; managers and HR may ask for others they can access.
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	subjectID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if subjectID == "" {
		selfID, ok := h.selfEmployee(w, r)
		if !ok {
			return
		}
		subjectID = selfID
	} else {
		allowed, err := h.Access.CanAccess(r.Context(), user, subjectID)
		if err != nil {
			failFeedback(w, r, err, "results_failed", "failed to load feedback results")
			return
		}
		if !allowed {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
			return
		}
	}

	results, err := h.Service.Results(r.Context(), user.TenantID, chi.URLParam(r, "cycleID"), subjectID)
	if err != nil {
		failFeedback(w, r, err, "results_failed", "failed to load feedback results")
		return
	}
	api.Success(w, results, middleware.GetRequestID(r.Context()))
}
