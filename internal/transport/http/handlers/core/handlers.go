package corehandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service     *core.Service
	Permissions middleware.PermissionStore
	Audit       audit.Recorder
}

func NewHandler(service *core.Service, permissions middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Permissions: permissions, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Permissions)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Permissions)).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Permissions)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Permissions)).Put("/", h.handleUpdateEmployee)
		})
	})
	r.Route("/org", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Permissions)).Get("/groups", h.handleListGroups)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Permissions)).Post("/groups", h.handleCreateGroup)
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Permissions)).Get("/companies", h.handleListCompanies)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Permissions)).Post("/companies", h.handleCreateCompany)
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Permissions)).Get("/companies/{companyID}/divisions", h.handleListDivisions)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Permissions)).Post("/companies/{companyID}/divisions", h.handleCreateDivision)
	})
	r.Route("/admin/modules", func(r chi.Router) {
		r.Get("/", h.handleListModules)
		r.With(middleware.RequirePermission(auth.PermModulesManage, h.Permissions)).Put("/{module}", h.handleSetModule)
	})
}

// failCore maps domain errors to responses. Unknown errors are logged and
// reported with the fallback code.
func failCore(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, core.ErrAccessDenied):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, core.ErrCompanyNotFound), errors.Is(err, core.ErrGroupNotFound),
		errors.Is(err, core.ErrDivisionNotFound), errors.Is(err, core.ErrManagerNotFound):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), requestID)
	case errors.Is(err, core.ErrDuplicateCode), errors.Is(err, core.ErrDuplicateEmail):
		api.Fail(w, http.StatusConflict, "duplicate", err.Error(), requestID)
	case errors.Is(err, core.ErrUnknownModule):
		api.Fail(w, http.StatusBadRequest, "unknown_module", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error(fallbackMessage, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var employee *core.Employee
	emp, err := h.Service.Me(r.Context(), user)
	switch {
	case err == nil:
		employee = &emp
	case !errors.Is(err, core.ErrEmployeeNotFound):
		failCore(w, r, err, "me_failed", "failed to load profile")
		return
	}

	api.Success(w, map[string]any{
		"user": map[string]string{
			"id":       user.UserID,
			"tenantId": user.TenantID,
			"roleId":   user.RoleID,
			"role":     user.RoleName,
		},
		"employee": employee,
	}, requestID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	employees, total, err := h.Service.ListEmployees(r.Context(), user, page.Limit, page.Offset)
	if err != nil {
		failCore(w, r, err, "employee_list_failed", "failed to list employees")
		return
	}
	page.WriteTotal(w, total)
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.ViewEmployee(r.Context(), user, chi.URLParam(r, "employeeID"))
	if err != nil {
		failCore(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload employeePayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	in, validator := payload.toInput()
	if validator.Reject(w, requestID) {
		return
	}

	emp, err := h.Service.CreateEmployee(r.Context(), user.TenantID, in)
	if err != nil {
		failCore(w, r, err, "employee_create_failed", "failed to create employee")
		return
	}
	shared.RecordAudit(r, h.Audit, "core.employee.create", "employee", emp.ID, nil, auditView(emp))
	api.Created(w, emp, requestID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	var payload employeePayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	in, validator := payload.toInput()
	if validator.Reject(w, requestID) {
		return
	}

	before, err := h.Service.GetEmployee(r.Context(), user.TenantID, employeeID)
	if err != nil {
		failCore(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	if in.Status == "" {
		in.Status = before.Status
	}
	if in.PayFrequency == "" {
		in.PayFrequency = before.PayFrequency
	}
	emp, err := h.Service.UpdateEmployee(r.Context(), user.TenantID, employeeID, in)
	if err != nil {
		failCore(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	shared.RecordAudit(r, h.Audit, "core.employee.update", "employee", emp.ID, auditView(before), auditView(emp))
	api.Success(w, emp, requestID)
}

// auditView keeps identifiers and salary out of the audit trail.
func auditView(emp core.Employee) map[string]any {
	return map[string]any{
		"companyId":    emp.CompanyID,
		"divisionId":   emp.DivisionID,
		"firstName":    emp.FirstName,
		"lastName":     emp.LastName,
		"email":        emp.Email,
		"jobTitle":     emp.JobTitle,
		"managerId":    emp.ManagerID,
		"payFrequency": emp.PayFrequency,
		"status":       emp.Status,
	}
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	groups, err := h.Service.ListGroups(r.Context(), user.TenantID)
	if err != nil {
		failCore(w, r, err, "group_list_failed", "failed to list company groups")
		return
	}
	api.Success(w, groups, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
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

	group, err := h.Service.CreateGroup(r.Context(), user.TenantID, core.CompanyGroup{Code: payload.Code, Name: strings.TrimSpace(payload.Name)})
	if err != nil {
		failCore(w, r, err, "group_create_failed", "failed to create company group")
		return
	}
	shared.RecordAudit(r, h.Audit, "core.group.create", "company_group", group.ID, nil, group)
	api.Created(w, group, requestID)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	companies, err := h.Service.ListCompanies(r.Context(), user.TenantID)
	if err != nil {
		failCore(w, r, err, "company_list_failed", "failed to list companies")
		return
	}
	api.Success(w, companies, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		GroupID   string `json:"groupId"`
		Code      string `json:"code"`
		Name      string `json:"name"`
		RFC       string `json:"rfc"`
		StateCode string `json:"stateCode"`
		RiskClass string `json:"riskClass"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("code", payload.Code, "is required")
	validator.Required("name", payload.Name, "is required")
	validator.Required("stateCode", payload.StateCode, "is required")
	if payload.StateCode != "" && !core.ValidStateCode(payload.StateCode) {
		validator.Add("stateCode", "must be a state abbreviation")
	}
	if payload.RFC != "" && !core.ValidRFC(payload.RFC) {
		validator.Add("rfc", "is not a valid RFC")
	}
	validator.Enum("riskClass", payload.RiskClass, core.RiskClasses, "must be one of I, II, III, IV, V")
	if validator.Reject(w, requestID) {
		return
	}

	company, err := h.Service.CreateCompany(r.Context(), user.TenantID, core.Company{
		GroupID:   strings.TrimSpace(payload.GroupID),
		Code:      payload.Code,
		Name:      strings.TrimSpace(payload.Name),
		RFC:       payload.RFC,
		StateCode: payload.StateCode,
		RiskClass: payload.RiskClass,
	})
	if err != nil {
		failCore(w, r, err, "company_create_failed", "failed to create company")
		return
	}
	shared.RecordAudit(r, h.Audit, "core.company.create", "company", company.ID, nil, company)
	api.Created(w, company, requestID)
}

func (h *Handler) handleListDivisions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	divisions, err := h.Service.ListDivisions(r.Context(), user.TenantID, chi.URLParam(r, "companyID"))
	if err != nil {
		failCore(w, r, err, "division_list_failed", "failed to list divisions")
		return
	}
	api.Success(w, divisions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDivision(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
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

	division, err := h.Service.CreateDivision(r.Context(), user.TenantID, core.Division{
		CompanyID: chi.URLParam(r, "companyID"),
		Code:      payload.Code,
		Name:      strings.TrimSpace(payload.Name),
	})
	if err != nil {
		failCore(w, r, err, "division_create_failed", "failed to create division")
		return
	}
	shared.RecordAudit(r, h.Audit, "core.division.create", "division", division.ID, nil, division)
	api.Created(w, division, requestID)
}

func (h *Handler) handleListModules(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	modules, err := h.Service.ListModules(r.Context(), user.TenantID)
	if err != nil {
		failCore(w, r, err, "module_list_failed", "failed to list modules")
		return
	}
	api.Success(w, modules, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetModule(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Enabled *bool `json:"enabled"`
	}
	if err := api.Decode(r, &payload); err != nil || payload.Enabled == nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "enabled is required", requestID)
		return
	}

	module := chi.URLParam(r, "module")
	flag, err := h.Service.SetModule(r.Context(), user.TenantID, module, *payload.Enabled)
	if err != nil {
		failCore(w, r, err, "module_update_failed", "failed to update module")
		return
	}
	shared.RecordAudit(r, h.Audit, "core.module.update", "module", module, nil, flag)
	api.Success(w, flag, requestID)
}
