package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
)

type stubPermissions map[string]bool

func (s stubPermissions) HasPermission(_ context.Context, roleID, permission string) (bool, error) {
	return s[roleID+":"+permission], nil
}

type stubModules struct {
	enabled map[string]bool
	err     error
}

func (s stubModules) ModuleEnabled(_ context.Context, tenantID, module string) (bool, error) {
	return s.enabled[tenantID+":"+module], s.err
}

type stubSessions struct{ active bool }

func (s stubSessions) SessionActive(context.Context, string, string) (bool, error) {
	return s.active, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequirePermission(t *testing.T) {
	guard := RequirePermission(auth.PermPayrollRun, stubPermissions{"hr-role:" + auth.PermPayrollRun: true})(okHandler())

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx := WithUser(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1", RoleID: "employee-role"})
	rec = httptest.NewRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ctx = WithUser(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u2", RoleID: "hr-role"})
	rec = httptest.NewRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireModule(t *testing.T) {
	store := stubModules{enabled: map[string]bool{"t1:succession": true}}
	ctx := WithUser(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1"})

	rec := httptest.NewRecorder()
	RequireModule("succession", store)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	RequireModule("feedback", store)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "module_disabled")

	rec = httptest.NewRecorder()
	RequireModule("feedback", stubModules{err: errors.New("db down")})(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token, err := auth.GenerateToken("s", auth.Claims{UserID: "u1", TenantID: "t1", SessionID: "sess"}, auth.SessionTTL)
	require.NoError(t, err)

	seen := false
	handler := Auth("s", stubSessions{active: false})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = GetUser(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, seen)

	handler = Auth("s", stubSessions{active: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = GetUser(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, seen)
}

func TestCORSPreflightAndOrigins(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(okHandler())

	pre := httptest.NewRequest(http.MethodOptions, "/api/v1/functions/tax/isr", nil)
	pre.Header.Set("Origin", "https://app.example.com")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, pre)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key"))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	CORS([]string{"*"})(okHandler()).ServeHTTP(rec, other)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	handler := BodyLimit(1024)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 2048)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}
