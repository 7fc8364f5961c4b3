package notificationshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/core"
	"hris/internal/domain/notifications"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
	Audit   audit.Recorder
}

func NewHandler(service *notifications.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
		r.Get("/settings", h.handleSettings)
		r.Put("/settings", h.handleUpdateSettings)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	total, err := h.Service.Count(r.Context(), user.TenantID, user.UserID)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("notification count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), user.TenantID, user.UserID, page.Limit, page.Offset)
	if err != nil {
		requestctx.Logger(r.Context()).Error("notification list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}

	page.WriteTotal(w, total)
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), user.TenantID, user.UserID, notificationID); err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
			return
		}
		requestctx.Logger(r.Context()).Error("notification update failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notification", requestID)
		return
	}
	api.Success(w, map[string]string{"status": "read"}, requestID)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if !user.IsHR() {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", requestID)
		return
	}

	settings, err := h.Service.GetSettings(r.Context(), user.TenantID)
	if err != nil {
		requestctx.Logger(r.Context()).Error("settings load failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", requestID)
		return
	}
	api.Success(w, settings, requestID)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if !user.IsHR() {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", requestID)
		return
	}

	var payload notifications.Settings
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	if payload.EmailFrom != "" && !core.ValidEmail(payload.EmailFrom) {
		validator.Add("emailFrom", "must be a valid email address")
	}
	if validator.Reject(w, requestID) {
		return
	}

	before, _ := h.Service.GetSettings(r.Context(), user.TenantID)
	if err := h.Service.UpdateSettings(r.Context(), user.TenantID, payload); err != nil {
		requestctx.Logger(r.Context()).Error("settings update failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to update settings", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, "notifications.settings.update", "tenant_settings", user.TenantID, before, payload)
	api.Success(w, map[string]string{"status": "updated"}, requestID)
}
