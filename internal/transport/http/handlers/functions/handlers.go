// Package functionshandler serves the /functions endpoints that front external
// providers: AI text analysis, email delivery and bulk user import.
package functionshandler

import (
	"github.com/go-chi/chi/v5"

	"hris/internal/domain/analysis"
	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/domain/directory"
	"hris/internal/domain/notifications"
	"hris/internal/transport/http/middleware"
)

type Handler struct {
	Analysis    *analysis.Service
	Notify      *notifications.Service
	Directory   *directory.Service
	Perms       middleware.PermissionStore
	Audit       audit.Recorder
	Limiter     *middleware.TokenBucket
	Idempotency middleware.IdempotencyBackend
	Modules     middleware.ModuleStore
}

// gate adds the tenant module switch when a module store is wired.
func (h *Handler) gate(r chi.Router, module string) chi.Router {
	if h.Modules == nil {
		return r
	}
	return r.With(middleware.RequireModule(module, h.Modules))
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	analyze := h.gate(r, core.ModuleAI).With(middleware.RequirePermission(auth.PermAIAnalyze, h.Perms))
	if h.Limiter != nil {
		analyze = analyze.With(h.Limiter.Middleware)
	}
	analyze.Post("/functions/ai/analyze", h.handleAnalyze)

	r.With(
		middleware.RequirePermission(auth.PermNotificationsSend, h.Perms),
		middleware.Idempotency(h.Idempotency),
	).Post("/functions/notifications/email", h.handleSendEmail)

	h.gate(r, core.ModuleImport).With(
		middleware.RequirePermission(auth.PermUsersImport, h.Perms),
		middleware.Idempotency(h.Idempotency),
	).Post("/functions/users/import", h.handleImportUsers)
}

