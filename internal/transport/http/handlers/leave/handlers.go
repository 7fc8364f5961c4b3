package leavehandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/leave"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

const maxLeaveDocuments = 5

type Handler struct {
	Service *leave.Service
	Access  shared.EmployeeAccess
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *leave.Service, access shared.EmployeeAccess, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Access: access, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveManage, h.Perms)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveManage, h.Perms)).Post("/grants/run", h.handleRunGrants)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests/{requestID}/cancel", h.handleCancelRequest)
	})
}

func failLeave(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	if shared.FailPolicy(w, requestID, err) {
		return
	}
	switch {
	case errors.Is(err, leave.ErrInvalidRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "endDate", Reason: "must be on or after startDate"}})
	case errors.Is(err, leave.ErrInvalidHalfDay):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "endHalf", Reason: "a single day cannot be half at both ends"}})
	case errors.Is(err, leave.ErrDocumentRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "documents", Reason: err.Error()}})
	case errors.Is(err, leave.ErrTypeNotFound), errors.Is(err, leave.ErrRequestNotFound), errors.Is(err, leave.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, leave.ErrDuplicateType):
		api.Fail(w, http.StatusConflict, "duplicate", err.Error(), requestID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error(fallbackMessage, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	types, err := h.Service.ListTypes(r.Context(), user.TenantID)
	if err != nil {
		failLeave(w, r, err, "leave_types_failed", "failed to list leave types")
		return
	}
	if types == nil {
		types = []leave.LeaveType{}
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload leave.LeaveType
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("code", payload.Code, "is required")
	validator.Required("name", payload.Name, "is required")
	if validator.Reject(w, requestID) {
		return
	}

	created, err := h.Service.CreateType(r.Context(), user.TenantID, payload)
	if err != nil {
		failLeave(w, r, err, "leave_type_create_failed", "failed to create leave type")
		return
	}
	shared.RecordAudit(r, h.Audit, "leave.type.create", "leave_type", created.ID, nil, created)
	api.Created(w, created, requestID)
}

// targetEmployee resolves ?employeeId= or falls back to the caller's own record.
func (h *Handler) targetEmployee(w http.ResponseWriter, r *http.Request, user auth.UserContext, requested string) (string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	requested = strings.TrimSpace(requested)
	if requested == "" {
		selfID, err := h.Access.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
		if err != nil {
			failLeave(w, r, err, "employee_lookup_failed", "failed to resolve employee")
			return "", false
		}
		if selfID == "" {
			api.Fail(w, http.StatusForbidden, "no_employee_record", "caller has no employee record", requestID)
			return "", false
		}
		return selfID, true
	}
	allowed, err := h.Access.CanAccess(r.Context(), user, requested)
	if err != nil {
		failLeave(w, r, err, "employee_lookup_failed", "failed to resolve employee")
		return "", false
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to access this employee", requestID)
		return "", false
	}
	return requested, true
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID, ok := h.targetEmployee(w, r, user, r.URL.Query().Get("employeeId"))
	if !ok {
		return
	}
	balances, err := h.Service.ListBalances(r.Context(), user.TenantID, employeeID)
	if err != nil {
		failLeave(w, r, err, "leave_balances_failed", "failed to list leave balances")
		return
	}
	if balances == nil {
		balances = []leave.Balance{}
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunGrants(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	summary, err := h.Service.GrantVacations(r.Context(), user.TenantID, time.Now())
	if err != nil {
		failLeave(w, r, err, "leave_grant_failed", "failed to grant vacation days")
		return
	}
	shared.RecordAudit(r, h.Audit, "leave.grant.run", "leave_balance", "", nil, summary)
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	validator := shared.NewValidator()
	validator.Enum("status", status, []string{leave.StatusPending, leave.StatusApproved, leave.StatusRejected, leave.StatusCancelled}, "must be a known request status")
	if validator.Reject(w, requestID) {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	requests, total, err := h.Service.ListRequests(r.Context(), user, status, page.Limit, page.Offset)
	if err != nil {
		failLeave(w, r, err, "leave_requests_failed", "failed to list leave requests")
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	page.WriteTotal(w, total)
	api.Success(w, requests, requestID)
}

type requestPayload struct {
	EmployeeID     string            `json:"employeeId"`
	LeaveTypeID    string            `json:"leaveTypeId"`
	StartDate      string            `json:"startDate"`
	EndDate        string            `json:"endDate"`
	StartHalf      bool              `json:"startHalf"`
	EndHalf        bool              `json:"endHalf"`
	Reason         string            `json:"reason"`
	Documents      []string          `json:"documents"`
	Justifications map[string]string `json:"justifications"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload requestPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("leaveTypeId", payload.LeaveTypeID, "is required")
	start, _ := validator.Date("startDate", payload.StartDate)
	end, _ := validator.Date("endDate", payload.EndDate)
	validator.DateOrder("startDate", start, "endDate", end)
	if len(payload.Documents) > maxLeaveDocuments {
		validator.Add("documents", "at most "+strconv.Itoa(maxLeaveDocuments)+" documents are allowed")
	}
	if validator.Reject(w, requestID) {
		return
	}
	employeeID, ok := h.targetEmployee(w, r, user, payload.EmployeeID)
	if !ok {
		return
	}

	result, err := h.Service.CreateRequest(r.Context(), user, leave.RequestInput{
		EmployeeID:     employeeID,
		LeaveTypeID:    strings.TrimSpace(payload.LeaveTypeID),
		StartDate:      start,
		EndDate:        end,
		StartHalf:      payload.StartHalf,
		EndHalf:        payload.EndHalf,
		Reason:         strings.TrimSpace(payload.Reason),
		Documents:      payload.Documents,
		Justifications: payload.Justifications,
	})
	if err != nil {
		failLeave(w, r, err, "leave_request_failed", "failed to create leave request")
		return
	}
	shared.RecordAudit(r, h.Audit, "leave.request.create", leave.EntityLeaveRequest, result.Request.ID, nil, result)
	api.Created(w, result, requestID)
}

type decision func(ctx context.Context, actor auth.UserContext, requestID string) (leave.Request, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, do decision) {
	user, _ := middleware.GetUser(r.Context())
	leaveRequestID := chi.URLParam(r, "requestID")
	decided, err := do(r.Context(), user, leaveRequestID)
	if err != nil {
		failLeave(w, r, err, "leave_"+action+"_failed", "failed to "+action+" leave request")
		return
	}
	shared.RecordAudit(r, h.Audit, "leave.request."+action, leave.EntityLeaveRequest, leaveRequestID,
		map[string]string{"status": leave.StatusPending}, map[string]string{"status": decided.Status})
	api.Success(w, decided, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve", h.Service.Approve)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject", h.Service.Reject)
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "cancel", h.Service.Cancel)
}
