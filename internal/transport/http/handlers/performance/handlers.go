package performancehandler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/performance"
	"hris/internal/platform/localdate"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *performance.Service
	Access  shared.EmployeeAccess
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *performance.Service, access shared.EmployeeAccess, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Access: access, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/performance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/goals", h.handleListGoals)
		r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/goals/summary", h.handleGoalSummary)
		r.With(middleware.RequirePermission(auth.PermPerformanceWrite, h.Perms)).Post("/goals", h.handleCreateGoal)
		r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/goals/{goalID}", h.handleGetGoal)
		r.With(middleware.RequirePermission(auth.PermPerformanceWrite, h.Perms)).Put("/goals/{goalID}", h.handleUpdateGoal)
		r.With(middleware.RequirePermission(auth.PermPerformanceWrite, h.Perms)).Delete("/goals/{goalID}", h.handleDeleteGoal)
		r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/cycles", h.handleListCycles)
		r.With(middleware.RequirePermission(auth.PermPerformanceManage, h.Perms)).Post("/cycles", h.handleCreateCycle)
		r.With(middleware.RequirePermission(auth.PermPerformanceManage, h.Perms)).Post("/cycles/{cycleID}/activate", h.handleActivateCycle)
		r.With(middleware.RequirePermission(auth.PermPerformanceManage, h.Perms)).Post("/cycles/{cycleID}/close", h.handleCloseCycle)
		r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Post("/ratings/convert", h.handleConvertRating)
	})
}

func failPerformance(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	var cycleErr *localdate.CycleError
	switch {
	case errors.As(err, &cycleErr):
		issues := make([]shared.ValidationIssue, 0, len(cycleErr.Issues))
		for _, issue := range cycleErr.Issues {
			issues = append(issues, shared.ValidationIssue{Field: issue.Field, Reason: issue.Reason})
		}
		shared.FailValidation(w, requestID, issues)
	case errors.Is(err, performance.ErrInvalidTarget):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "targetValue", Reason: err.Error()}})
	case errors.Is(err, performance.ErrInvalidThresholds):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "threshold", Reason: err.Error()}})
	case errors.Is(err, performance.ErrUnknownScale), errors.Is(err, performance.ErrRatingOutOfRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "ratingScale", Reason: err.Error()}})
	case errors.Is(err, performance.ErrGoalNotFound), errors.Is(err, performance.ErrCycleNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, performance.ErrCycleTransition):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error(fallbackMessage, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

// authorize writes a 403 and returns false when the caller may not act on employeeID.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, employeeID string) bool {
	user, _ := middleware.GetUser(r.Context())
	allowed, err := h.Access.CanAccess(r.Context(), user, employeeID)
	if err != nil {
		requestctx.Logger(r.Context()).Error("employee access check failed", "employeeId", employeeID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "access_check_failed", "failed to check access", middleware.GetRequestID(r.Context()))
		return false
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// targetEmployee resolves the employeeId query or body value, defaulting to the caller.
func (h *Handler) targetEmployee(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	user, _ := middleware.GetUser(r.Context())
	requested = strings.TrimSpace(requested)
	if requested == "" {
		selfID, err := h.Access.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
		if err != nil || selfID == "" {
			api.Fail(w, http.StatusBadRequest, "employee_required", "employeeId is required", middleware.GetRequestID(r.Context()))
			return "", false
		}
		return selfID, true
	}
	return requested, h.authorize(w, r, requested)
}

func (h *Handler) handleListGoals(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	filter := performance.GoalFilter{}
	if requested := strings.TrimSpace(r.URL.Query().Get("employeeId")); requested != "" {
		if !h.authorize(w, r, requested) {
			return
		}
		filter.EmployeeID = requested
	} else if user.IsHR() {
		filter.All = true
	} else {
		selfID, err := h.Access.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
		if err != nil {
			failPerformance(w, r, err, "goal_list_failed", "failed to list goals")
			return
		}
		if selfID == "" {
			api.Success(w, []performance.Goal{}, middleware.GetRequestID(r.Context()))
			return
		}
		filter.EmployeeID = selfID
		if user.IsManager() {
			filter.ManagerEmployeeID = selfID
		}
	}

	goals, err := h.Service.ListGoals(r.Context(), user.TenantID, filter)
	if err != nil {
		failPerformance(w, r, err, "goal_list_failed", "failed to list goals")
		return
	}
	if goals == nil {
		goals = []performance.Goal{}
	}
	api.Success(w, goals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGoalSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID, ok := h.targetEmployee(w, r, r.URL.Query().Get("employeeId"))
	if !ok {
		return
	}
	summary, err := h.Service.GoalSummary(r.Context(), user.TenantID, employeeID)
	if err != nil {
		failPerformance(w, r, err, "goal_summary_failed", "failed to summarize goals")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	goal, err := h.Service.GetGoal(r.Context(), user.TenantID, chi.URLParam(r, "goalID"))
	if err != nil {
		failPerformance(w, r, err, "goal_get_failed", "failed to load goal")
		return
	}
	if !h.authorize(w, r, goal.EmployeeID) {
		return
	}
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

type goalPayload struct {
	EmployeeID   string   `json:"employeeId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Metric       string   `json:"metric"`
	TargetValue  float64  `json:"targetValue"`
	CurrentValue *float64 `json:"currentValue"`
	Inverse      bool     `json:"inverse"`
	Threshold    float64  `json:"threshold"`
	Stretch      float64  `json:"stretch"`
	Weight       float64  `json:"weight"`
	DueDate      string   `json:"dueDate"`
	Status       string   `json:"status"`
}

func (p goalPayload) toInput(employeeID string) (performance.GoalInput, *shared.Validator) {
	v := shared.NewValidator()
	v.Required("title", p.Title, "is required")
	v.Positive("targetValue", p.TargetValue)
	if p.Weight < 0 {
		v.Add("weight", "must not be negative")
	}
	if p.CurrentValue != nil && *p.CurrentValue < 0 {
		v.Add("currentValue", "must not be negative")
	}
	v.Enum("status", p.Status, performance.GoalStatuses, "must be active, completed or cancelled")
	var due *time.Time
	if strings.TrimSpace(p.DueDate) != "" {
		if parsed, ok := v.Date("dueDate", p.DueDate); ok {
			due = &parsed
		}
	}
	return performance.GoalInput{
		EmployeeID:   employeeID,
		Title:        strings.TrimSpace(p.Title),
		Description:  strings.TrimSpace(p.Description),
		Metric:       strings.TrimSpace(p.Metric),
		TargetValue:  p.TargetValue,
		CurrentValue: p.CurrentValue,
		Inverse:      p.Inverse,
		Threshold:    p.Threshold,
		Stretch:      p.Stretch,
		Weight:       p.Weight,
		DueDate:      due,
		Status:       strings.ToLower(strings.TrimSpace(p.Status)),
	}, v
}

func (h *Handler) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload goalPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	employeeID, ok := h.targetEmployee(w, r, payload.EmployeeID)
	if !ok {
		return
	}
	in, validator := payload.toInput(employeeID)
	if validator.Reject(w, requestID) {
		return
	}

	goal, err := h.Service.CreateGoal(r.Context(), user.TenantID, in)
	if err != nil {
		failPerformance(w, r, err, "goal_create_failed", "failed to create goal")
		return
	}
	shared.RecordAudit(r, h.Audit, "performance.goal.create", "goal", goal.ID, nil, goal)
	api.Created(w, goal, requestID)
}

func (h *Handler) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	goalID := chi.URLParam(r, "goalID")
	var payload goalPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	before, err := h.Service.GetGoal(r.Context(), user.TenantID, goalID)
	if err != nil {
		failPerformance(w, r, err, "goal_update_failed", "failed to update goal")
		return
	}
	if !h.authorize(w, r, before.EmployeeID) {
		return
	}
	in, validator := payload.toInput(before.EmployeeID)
	if validator.Reject(w, requestID) {
		return
	}

	goal, err := h.Service.UpdateGoal(r.Context(), user.TenantID, goalID, in)
	if err != nil {
		failPerformance(w, r, err, "goal_update_failed", "failed to update goal")
		return
	}
	shared.RecordAudit(r, h.Audit, "performance.goal.update", "goal", goal.ID, before, goal)
	api.Success(w, goal, requestID)
}

func (h *Handler) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	goalID := chi.URLParam(r, "goalID")
	before, err := h.Service.GetGoal(r.Context(), user.TenantID, goalID)
	if err != nil {
		failPerformance(w, r, err, "goal_delete_failed", "failed to delete goal")
		return
	}
	if !h.authorize(w, r, before.EmployeeID) {
		return
	}
	if err := h.Service.DeleteGoal(r.Context(), user.TenantID, goalID); err != nil {
		failPerformance(w, r, err, "goal_delete_failed", "failed to delete goal")
		return
	}
	shared.RecordAudit(r, h.Audit, "performance.goal.delete", "goal", goalID, before, nil)
	api.Success(w, map[string]string{"id": goalID, "status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	cycles, err := h.Service.ListCycles(r.Context(), user.TenantID)
	if err != nil {
		failPerformance(w, r, err, "cycle_list_failed", "failed to list appraisal cycles")
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Name                  string `json:"name"`
		StartDate             string `json:"startDate"`
		EndDate               string `json:"endDate"`
		SelfReviewDeadline    string `json:"selfReviewDeadline"`
		ManagerReviewDeadline string `json:"managerReviewDeadline"`
		CalibrationDeadline   string `json:"calibrationDeadline"`
		RatingScale           string `json:"ratingScale"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "is required")
	validator.Enum("ratingScale", payload.RatingScale, performance.RatingScaleNames, "must be one of 1-5, 1-4, 1-10, 0-100")
	start, _ := validator.Date("startDate", payload.StartDate)
	end, _ := validator.Date("endDate", payload.EndDate)
	in := performance.CycleInput{
		Name:                  strings.TrimSpace(payload.Name),
		StartDate:             start,
		EndDate:               end,
		SelfReviewDeadline:    optionalDate(validator, "selfReviewDeadline", payload.SelfReviewDeadline),
		ManagerReviewDeadline: optionalDate(validator, "managerReviewDeadline", payload.ManagerReviewDeadline),
		CalibrationDeadline:   optionalDate(validator, "calibrationDeadline", payload.CalibrationDeadline),
		RatingScale:           payload.RatingScale,
	}
	if !start.IsZero() && !end.IsZero() {
		for _, issue := range performance.ValidateCycle(in) {
			validator.Add(issue.Field, issue.Reason)
		}
	}
	if validator.Reject(w, requestID) {
		return
	}

	cycle, err := h.Service.CreateCycle(r.Context(), user.TenantID, in)
	if err != nil {
		failPerformance(w, r, err, "cycle_create_failed", "failed to create appraisal cycle")
		return
	}
	shared.RecordAudit(r, h.Audit, "performance.cycle.create", "appraisal_cycle", cycle.ID, nil, cycle)
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

func (h *Handler) handleActivateCycle(w http.ResponseWriter, r *http.Request) {
	h.transitionCycle(w, r, "performance.cycle.activate", h.Service.ActivateCycle)
}

func (h *Handler) handleCloseCycle(w http.ResponseWriter, r *http.Request) {
	h.transitionCycle(w, r, "performance.cycle.close", h.Service.CloseCycle)
}

func (h *Handler) transitionCycle(w http.ResponseWriter, r *http.Request, action string, transition func(ctx context.Context, tenantID, cycleID string) (performance.AppraisalCycle, error)) {
	user, _ := middleware.GetUser(r.Context())
	cycleID := chi.URLParam(r, "cycleID")
	cycle, err := transition(r.Context(), user.TenantID, cycleID)
	if err != nil {
		failPerformance(w, r, err, "cycle_update_failed", "failed to update appraisal cycle")
		return
	}
	shared.RecordAudit(r, h.Audit, action, "appraisal_cycle", cycleID, nil, map[string]string{"status": cycle.Status})
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleConvertRating(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload struct {
		Value float64 `json:"value"`
		From  string  `json:"from"`
		To    string  `json:"to"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	from, err := performance.ParseRatingScale(payload.From)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "from", Reason: err.Error()}})
		return
	}
	to, err := performance.ParseRatingScale(payload.To)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "to", Reason: err.Error()}})
		return
	}
	converted, err := performance.ConvertRating(payload.Value, from, to)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "value", Reason: err.Error()}})
		return
	}
	api.Success(w, map[string]any{"value": converted, "from": from, "to": to}, requestID)
}
