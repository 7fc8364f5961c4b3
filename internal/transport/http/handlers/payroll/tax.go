package payrollhandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/payroll/statutory"
	"hris/internal/platform/metrics"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
)

// Tax function requests carry the calculator input plus the tax year.
// A missing year means the current calendar year.
type isrRequest struct {
	statutory.ISRInput
	TaxYear int `json:"taxYear"`
}

type imssRequest struct {
	statutory.IMSSInput
	TaxYear int `json:"taxYear"`
}

type sdiRequest struct {
	statutory.SDIInput
	TaxYear int `json:"taxYear"`
}

type isnRequest struct {
	statutory.ISNInput
	TaxYear int `json:"taxYear"`
}

type payrollRequest struct {
	statutory.PayrollInput
	TaxYear int `json:"taxYear"`
}

func taxYear(year int) int {
	if year == 0 {
		return time.Now().Year()
	}
	return year
}

func (h *Handler) RegisterFunctionRoutes(r chi.Router) {
	r.Route("/functions/tax", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermTaxCalculate, h.Perms))
		r.Post("/isr", h.handleISR)
		r.Post("/imss", h.handleIMSS)
		r.Post("/sdi", h.handleSDI)
		r.Post("/isn", h.handleISN)
		r.Post("/payroll", h.handlePayrollCalculation)
	})
}

func (h *Handler) handleISR(w http.ResponseWriter, r *http.Request) {
	var payload isrRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.Calculator().ISR(r.Context(), taxYear(payload.TaxYear), payload.ISRInput)
	h.respondCalculation(w, r, "isr", result, err)
}

func (h *Handler) handleIMSS(w http.ResponseWriter, r *http.Request) {
	var payload imssRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.Calculator().IMSS(r.Context(), taxYear(payload.TaxYear), payload.IMSSInput)
	h.respondCalculation(w, r, "imss", result, err)
}

func (h *Handler) handleSDI(w http.ResponseWriter, r *http.Request) {
	var payload sdiRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.Calculator().SDI(r.Context(), taxYear(payload.TaxYear), payload.SDIInput)
	h.respondCalculation(w, r, "sdi", result, err)
}

func (h *Handler) handleISN(w http.ResponseWriter, r *http.Request) {
	var payload isnRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.Calculator().ISN(r.Context(), taxYear(payload.TaxYear), payload.ISNInput)
	h.respondCalculation(w, r, "isn", result, err)
}

func (h *Handler) handlePayrollCalculation(w http.ResponseWriter, r *http.Request) {
	var payload payrollRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.Calculator().Payroll(r.Context(), taxYear(payload.TaxYear), payload.PayrollInput)
	h.respondCalculation(w, r, "payroll", result, err)
}

func (h *Handler) respondCalculation(w http.ResponseWriter, r *http.Request, kind string, result any, err error) {
	metrics.RecordCalculation(kind, err)
	if err != nil {
		failPayroll(w, r, err, "calculation_failed", "calculation failed")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}
