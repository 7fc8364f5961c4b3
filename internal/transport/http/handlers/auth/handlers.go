package authhandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/platform/email"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
)

type Service interface {
	Login(ctx context.Context, email, password, mfaCode string) (auth.LoginResult, error)
	Logout(ctx context.Context, user auth.UserContext) error
	SetupMFA(ctx context.Context, user auth.UserContext) (auth.MFASetup, error)
	SetMFA(ctx context.Context, user auth.UserContext, code string, enabled bool) error
	RequestReset(ctx context.Context, email string) (*auth.PasswordReset, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, user auth.UserContext, current, next string) error
}

type Handler struct {
	Service Service
	Mailer  email.Mailer
	From    string
	BaseURL string
}

func NewHandler(service Service, mailer email.Mailer, from, baseURL string) *Handler {
	return &Handler{Service: service, Mailer: mailer, From: from, BaseURL: baseURL}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
		r.Post("/request-reset", h.HandleRequestReset)
		r.Post("/reset", h.HandleResetPassword)
		r.Post("/change-password", h.HandleChangePassword)
		r.Post("/mfa/setup", h.HandleMFASetup)
		r.Post("/mfa/enable", h.HandleMFAEnable)
		r.Post("/mfa/disable", h.HandleMFADisable)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
	case err != nil:
		requestctx.Logger(r.Context()).Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", requestID)
	default:
		api.Success(w, result, requestID)
	}
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok {
		if err := h.Service.Logout(r.Context(), user); err != nil {
			requestctx.Logger(r.Context()).Warn("logout session revoke failed", "userId", user.UserID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	setup, err := h.Service.SetupMFA(r.Context(), user)
	if errors.Is(err, auth.ErrMFAUnavailable) {
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", requestID)
		return
	}
	api.Success(w, setup, requestID)
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, false)
}

func (h *Handler) setMFA(w http.ResponseWriter, r *http.Request, enabled bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload mfaCodeRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	err := h.Service.SetMFA(r.Context(), user, payload.Code, enabled)
	switch {
	case errors.Is(err, auth.ErrMFAUnavailable):
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", requestID)
	case errors.Is(err, auth.ErrMFANotConfigured):
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", requestID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", requestID)
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "mfa_update_failed", "failed to update mfa", requestID)
	case enabled:
		api.Success(w, map[string]string{"status": "enabled"}, requestID)
	default:
		api.Success(w, map[string]string{"status": "disabled"}, requestID)
	}
}

// HandleRequestReset always answers the same way so callers cannot probe
// which accounts exist.
func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload resetRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	reset, err := h.Service.RequestReset(r.Context(), payload.Email)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("password reset request failed", "err", err)
	}
	if reset != nil && h.Mailer != nil {
		link := buildResetLink(h.BaseURL, reset.Token)
		err := h.Mailer.Send(r.Context(), email.Message{
			From:    h.From,
			To:      []string{reset.Email},
			Subject: "Password reset",
			Text:    buildResetEmailMessage(link, auth.ResetTokenTTL),
		})
		if err != nil {
			requestctx.Logger(r.Context()).Warn("password reset email failed", "userId", reset.UserID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "reset_requested"}, requestID)
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload resetPasswordRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	err := h.Service.ResetPassword(r.Context(), payload.Token, payload.NewPassword)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		api.Fail(w, http.StatusBadRequest, "weak_password", err.Error(), requestID)
	case errors.Is(err, auth.ErrResetTokenInvalid):
		api.Fail(w, http.StatusBadRequest, "invalid_token", "invalid or expired token", requestID)
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update password", requestID)
	default:
		api.Success(w, map[string]string{"status": "password_reset"}, requestID)
	}
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload changePasswordRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	err := h.Service.ChangePassword(r.Context(), user, payload.CurrentPassword, payload.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", requestID)
	case errors.Is(err, auth.ErrWeakPassword):
		api.Fail(w, http.StatusBadRequest, "weak_password", err.Error(), requestID)
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update password", requestID)
	default:
		api.Success(w, map[string]string{"status": "password_changed"}, requestID)
	}
}

const defaultBaseURL = "http://localhost:8080"

func buildResetLink(baseURL, token string) string {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		parsed, _ = url.Parse(defaultBaseURL)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/reset"
	parsed.RawQuery = url.Values{"token": []string{token}}.Encode()
	return parsed.String()
}

func buildResetEmailMessage(link string, ttl time.Duration) string {
	hours := int(ttl.Hours())
	return fmt.Sprintf("A password reset was requested for your account.\n\nOpen %s to choose a new password. The link expires in %d hour(s).\n\nIf you did not ask for this, ignore this message.\n", link, hours)
}
