package payrollhandler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/payroll"
	"hris/internal/domain/payroll/statutory"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

const maxTableUploadBytes = 2 << 20

type Handler struct {
	Service *payroll.Service
	Tables  *payroll.TableService
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *payroll.Service, tables *payroll.TableService, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Tables: tables, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods", h.handleListPeriods)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/periods", h.handleCreatePeriod)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods/{periodID}", h.handleGetPeriod)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/periods/{periodID}/run", h.handleRunPayroll)
		r.With(middleware.RequirePermission(auth.PermPayrollFinalize, h.Perms)).Post("/periods/{periodID}/finalize", h.handleFinalizePayroll)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Get("/periods/{periodID}/results", h.handleListResults)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Get("/periods/{periodID}/export/register", h.handleExportRegister)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/payslips", h.handleListPayslips)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/payslips/{payslipID}/download", h.handleDownloadPayslip)
		r.With(middleware.RequirePermission(auth.PermPayrollTables, h.Perms)).Get("/tables", h.handleListTableYears)
		r.With(middleware.RequirePermission(auth.PermPayrollTables, h.Perms)).Get("/tables/{year}", h.handleGetTables)
		r.With(middleware.RequirePermission(auth.PermPayrollTables, h.Perms)).Put("/tables", h.handleUploadTables)
	})
}

// failPayroll maps domain and calculator errors; anything unknown is logged
// and reported as a 500 with the fallback code and the error message.
func failPayroll(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	var validation *statutory.ValidationError
	var missing *statutory.MissingTableError
	switch {
	case errors.As(err, &validation):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: validation.Field, Reason: validation.Reason}})
	case errors.As(err, &missing):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "rate_table_missing", missing.Error(),
			map[string]any{"year": missing.Year, "table": missing.Table}, requestID)
	case errors.Is(err, statutory.ErrTableNotFound):
		api.Fail(w, http.StatusUnprocessableEntity, "rate_table_missing", err.Error(), requestID)
	case errors.Is(err, statutory.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, payroll.ErrPeriodNotFound), errors.Is(err, payroll.ErrPayslipNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, payroll.ErrCompanyNotFound):
		api.Fail(w, http.StatusBadRequest, "invalid_reference", err.Error(), requestID)
	case errors.Is(err, payroll.ErrPeriodFinalized), errors.Is(err, payroll.ErrFinalizeInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, payroll.ErrFinalizeNoResults):
		api.Fail(w, http.StatusConflict, "no_results", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNoEmployees):
		api.Fail(w, http.StatusUnprocessableEntity, "no_employees", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error(fallbackMessage, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage+": "+err.Error(), requestID)
	}
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 25, 100)
	total, err := h.Service.CountPeriods(r.Context(), user.TenantID)
	if err != nil {
		failPayroll(w, r, err, "period_list_failed", "failed to list payroll periods")
		return
	}
	periods, err := h.Service.ListPeriods(r.Context(), user.TenantID, page.Limit, page.Offset)
	if err != nil {
		failPayroll(w, r, err, "period_list_failed", "failed to list payroll periods")
		return
	}
	page.WriteTotal(w, total)
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	period, err := h.Service.GetPeriod(r.Context(), user.TenantID, chi.URLParam(r, "periodID"))
	if err != nil {
		failPayroll(w, r, err, "period_get_failed", "failed to load payroll period")
		return
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		CompanyID  string `json:"companyId"`
		PeriodType string `json:"periodType"`
		StartDate  string `json:"startDate"`
		EndDate    string `json:"endDate"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	validator := shared.NewValidator()
	validator.Required("companyId", payload.CompanyID, "is required")
	periodType, err := statutory.ParsePeriodType(payload.PeriodType)
	if err != nil {
		validator.Add("periodType", "must be one of monthly, biweekly, weekly")
	}
	start, _ := validator.Date("startDate", payload.StartDate)
	end, _ := validator.Date("endDate", payload.EndDate)
	validator.DateOrder("startDate", start, "endDate", end)
	if validator.Reject(w, requestID) {
		return
	}

	period, err := h.Service.CreatePeriod(r.Context(), user.TenantID, payroll.NewPeriod{
		CompanyID:  strings.TrimSpace(payload.CompanyID),
		PeriodType: periodType,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		failPayroll(w, r, err, "period_create_failed", "failed to create payroll period")
		return
	}
	shared.RecordAudit(r, h.Audit, "payroll.period.create", "payroll_period", period.ID, nil, period)
	api.Created(w, period, requestID)
}

func (h *Handler) handleRunPayroll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	periodID := chi.URLParam(r, "periodID")
	summary, err := h.Service.RunPeriod(r.Context(), user.TenantID, periodID)
	if err != nil {
		failPayroll(w, r, err, "payroll_run_failed", "failed to run payroll")
		return
	}
	shared.RecordAudit(r, h.Audit, "payroll.period.run", "payroll_period", periodID, nil, map[string]any{
		"employeeCount": summary.EmployeeCount,
		"totalNet":      summary.TotalNet,
		"skipped":       len(summary.Skipped),
	})
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFinalizePayroll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	periodID := chi.URLParam(r, "periodID")
	payslips, err := h.Service.FinalizePeriod(r.Context(), user.TenantID, periodID)
	if err != nil {
		failPayroll(w, r, err, "payroll_finalize_failed", "failed to finalize payroll")
		return
	}
	shared.RecordAudit(r, h.Audit, "payroll.period.finalize", "payroll_period", periodID,
		map[string]string{"status": payroll.PeriodStatusReviewed},
		map[string]any{"status": payroll.PeriodStatusFinalized, "payslips": payslips})
	api.Success(w, map[string]any{"periodId": periodID, "status": payroll.PeriodStatusFinalized, "payslips": payslips}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	results, err := h.Service.ListResults(r.Context(), user.TenantID, chi.URLParam(r, "periodID"))
	if err != nil {
		failPayroll(w, r, err, "result_list_failed", "failed to list payroll results")
		return
	}
	api.Success(w, results, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	periodID := chi.URLParam(r, "periodID")
	results, err := h.Service.ListResults(r.Context(), user.TenantID, periodID)
	if err != nil {
		failPayroll(w, r, err, "export_failed", "failed to export register")
		return
	}

	logger := requestctx.Logger(r.Context())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll-register-"+periodID+".csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"employee_id", "employee_name", "gross", "isr", "imss_employee", "imss_employer", "isn", "net"}); err != nil {
		logger.Warn("export register header write failed", "err", err)
	}
	for _, res := range results {
		row := []string{res.EmployeeID, res.EmployeeName, money(res.Gross), money(res.ISR), money(res.IMSSEmployee), money(res.IMSSEmployer), money(res.ISN), money(res.Net)}
		if err := writer.Write(row); err != nil {
			logger.Warn("export register row write failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		logger.Warn("export register flush failed", "err", err)
	}
}

func money(v float64) string { return fmt.Sprintf("%.2f", v) }

// handleListPayslips shows the caller's own payslips. Payroll runners may
// pass employeeId to look at someone else's.
func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if employeeID == "" || !user.IsHR() {
		selfID, err := h.Service.EmployeeIDForUser(r.Context(), user.TenantID, user.UserID)
		if err != nil {
			failPayroll(w, r, err, "payslip_list_failed", "failed to list payslips")
			return
		}
		if selfID == "" {
			api.Success(w, []payroll.Payslip{}, requestID)
			return
		}
		employeeID = selfID
	}

	page := shared.ParsePagination(r, 24, 100)
	total, err := h.Service.CountPayslips(r.Context(), user.TenantID, employeeID)
	if err != nil {
		failPayroll(w, r, err, "payslip_list_failed", "failed to list payslips")
		return
	}
	payslips, err := h.Service.ListPayslips(r.Context(), user.TenantID, employeeID, page.Limit, page.Offset)
	if err != nil {
		failPayroll(w, r, err, "payslip_list_failed", "failed to list payslips")
		return
	}
	page.WriteTotal(w, total)
	api.Success(w, payslips, requestID)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	payslipID := chi.URLParam(r, "payslipID")

	owner, err := h.Service.PayslipOwner(r.Context(), user.TenantID, payslipID)
	if err != nil {
		failPayroll(w, r, err, "payslip_download_failed", "failed to load payslip")
		return
	}
	if !user.IsHR() {
		selfID, err := h.Service.EmployeeIDForUser(r.Context(), user.TenantID, user.UserID)
		if err != nil {
			failPayroll(w, r, err, "payslip_download_failed", "failed to load payslip")
			return
		}
		if selfID == "" || selfID != owner {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
			return
		}
	}

	pdf, err := h.Service.PayslipPDF(r.Context(), user.TenantID, payslipID)
	if err != nil {
		failPayroll(w, r, err, "payslip_missing", "payslip not available")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=payslip-"+payslipID+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		requestctx.Logger(r.Context()).Warn("payslip write failed", "payslipId", payslipID, "err", err)
	}
}

func (h *Handler) handleListTableYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.Tables.Years(r.Context())
	if err != nil {
		failPayroll(w, r, err, "table_list_failed", "failed to list statutory tables")
		return
	}
	api.Success(w, map[string]any{"years": years}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetTables(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a four digit tax year"}})
		return
	}
	set, err := h.Tables.Get(r.Context(), year)
	if err != nil {
		failPayroll(w, r, err, "table_get_failed", "failed to load statutory tables")
		return
	}
	api.Success(w, set, middleware.GetRequestID(r.Context()))
}

// handleUploadTables accepts a whole table set as YAML or JSON and replaces
// that year.
func (h *Handler) handleUploadTables(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	data, err := io.ReadAll(io.LimitReader(r.Body, maxTableUploadBytes))
	if err != nil || len(data) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "table set body is required", requestID)
		return
	}
	set, err := h.Tables.Upload(r.Context(), data)
	if err != nil {
		failPayroll(w, r, err, "table_upload_failed", "failed to store statutory tables")
		return
	}
	shared.RecordAudit(r, h.Audit, "payroll.tables.upload", "statutory_tables", strconv.Itoa(set.Year), nil, map[string]int{"year": set.Year})
	api.Success(w, map[string]int{"year": set.Year}, requestID)
}
