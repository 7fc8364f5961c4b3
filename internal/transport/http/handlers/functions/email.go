package functionshandler

import (
	"errors"
	"net/http"
	"strings"

	"hris/internal/domain/core"
	"hris/internal/domain/notifications"
	"hris/internal/platform/email"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

const maxEmailRecipients = 50

type emailPayload struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Markdown string   `json:"markdown"`
	Type     string   `json:"type"`
}

func (h *Handler) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload emailPayload
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	if len(payload.To) == 0 {
		validator.Add("to", "at least one recipient is required")
	}
	if len(payload.To) > maxEmailRecipients {
		validator.Add("to", "too many recipients")
	}
	for _, addr := range payload.To {
		if !core.ValidEmail(addr) {
			validator.Add("to", "contains an invalid address")
			break
		}
	}
	validator.Required("subject", payload.Subject, "is required")
	validator.Required("markdown", payload.Markdown, "is required")
	if validator.Reject(w, requestID) {
		return
	}

	result, err := h.Notify.SendEmail(r.Context(), user.TenantID, notifications.EmailRequest{
		To:       payload.To,
		Subject:  payload.Subject,
		Markdown: payload.Markdown,
		Type:     strings.TrimSpace(payload.Type),
	})
	if err != nil {
		switch {
		case errors.Is(err, notifications.ErrNoRecipients):
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "to", Reason: err.Error()}})
		case errors.Is(err, notifications.ErrSubjectRequired):
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "subject", Reason: err.Error()}})
		case errors.Is(err, email.ErrRateLimited):
			api.Fail(w, http.StatusTooManyRequests, "rate_limited", "email provider rate limit exceeded", requestID)
		case errors.Is(err, email.ErrPaymentRequired):
			api.Fail(w, http.StatusPaymentRequired, "payment_required", "email provider quota exhausted", requestID)
		default:
			requestctx.Logger(r.Context()).Error("send email failed", "err", err)
			api.Fail(w, http.StatusInternalServerError, "email_failed", err.Error(), requestID)
		}
		return
	}
	shared.RecordAudit(r, h.Audit, "notifications.email.send", "email", "", nil, map[string]any{
		"subject":    payload.Subject,
		"recipients": result.Recipients,
		"provider":   result.Provider,
	})
	api.Success(w, result, requestID)
}
