package functionshandler

import (
	"errors"
	"net/http"
	"strings"

	"hris/internal/domain/analysis"
	"hris/internal/platform/aigateway"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

func failAnalysis(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, analysis.ErrTextRequired), errors.Is(err, analysis.ErrTextTooLong):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "text", Reason: err.Error()}})
	case errors.Is(err, analysis.ErrUnknownType):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "analysisType", Reason: err.Error()}})
	case errors.Is(err, aigateway.ErrRateLimited):
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "AI gateway rate limit exceeded, try again later", requestID)
	case errors.Is(err, aigateway.ErrPaymentRequired):
		api.Fail(w, http.StatusPaymentRequired, "payment_required", "AI credits exhausted", requestID)
	default:
		requestctx.Logger(r.Context()).Error("ai analysis failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "analysis_failed", err.Error(), requestID)
	}
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload analysis.Request
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.AnalysisType = strings.ToLower(strings.TrimSpace(payload.AnalysisType))

	result, err := h.Analysis.Analyze(r.Context(), payload)
	if err != nil {
		failAnalysis(w, r, err)
		return
	}
	api.Success(w, result, requestID)
}
