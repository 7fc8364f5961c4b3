package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
)

type limitedRequest struct {
	method string
	path   string
	body   string
	remote string
	user   *auth.UserContext
}

func (lr limitedRequest) send(h http.Handler) *httptest.ResponseRecorder {
	method := lr.method
	if method == "" {
		method = http.MethodPost
	}
	var req *http.Request
	if lr.body != "" {
		req = httptest.NewRequest(method, lr.path, bytes.NewBufferString(lr.body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, lr.path, nil)
	}
	req.RemoteAddr = lr.remote
	if lr.user != nil {
		req = req.WithContext(WithUser(context.Background(), *lr.user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitKeysByActorAcrossAddresses(t *testing.T) {
	limited := RateLimit(1, time.Minute)(okHandler())
	hr := &auth.UserContext{TenantID: "tenant-1", UserID: "user-1"}

	first := limitedRequest{path: "/api/v1/payroll/periods/p1/finalize", remote: "198.51.100.11:2222", user: hr}.send(limited)
	require.Equal(t, http.StatusNoContent, first.Code)

	second := limitedRequest{path: "/api/v1/payroll/periods/p1/finalize", remote: "198.51.100.12:3333", user: hr}.send(limited)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(okHandler())

	first := limitedRequest{path: "/api/v1/auth/request-reset", body: `{"email":"a@example.com"}`, remote: "203.0.113.10:4444"}.send(limited)
	require.Equal(t, http.StatusNoContent, first.Code)

	second := limitedRequest{path: "/api/v1/auth/request-reset", body: `{"email":"b@example.com"}`, remote: "203.0.113.10:5555"}.send(limited)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	forwarded := limitedRequest{path: "/api/v1/auth/request-reset", remote: "10.0.0.1:1"}
	req := httptest.NewRequest(http.MethodPost, forwarded.path, nil)
	req.RemoteAddr = forwarded.remote
	req.Header.Set("X-Forwarded-For", "192.0.2.99, 10.0.0.1")
	assert.Equal(t, "192.0.2.99", ClientIP(req))
}

func TestRateLimitWindowResetsAndReportsRetry(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(okHandler())
	login := limitedRequest{path: "/api/v1/auth/login", body: `{"email":"a@example.com"}`, remote: "192.0.2.20:1111"}

	require.Equal(t, http.StatusNoContent, login.send(limited).Code)

	throttled := login.send(limited)
	require.Equal(t, http.StatusTooManyRequests, throttled.Code)
	assert.NotEmpty(t, throttled.Header().Get("Retry-After"))
	assert.Equal(t, "1", throttled.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", throttled.Header().Get("X-RateLimit-Remaining"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, http.StatusNoContent, login.send(limited).Code)
}

func TestSensitiveMutationRateLimitOnlyCountsSensitiveRoutes(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(okHandler())

	for i := 0; i < 6; i++ {
		rec := limitedRequest{method: http.MethodGet, path: "/api/v1/reports/dashboard/hr", remote: "198.51.100.40:8888"}.send(limited)
		require.Equal(t, http.StatusNoContent, rec.Code, "read %d", i+1)
	}

	hr := &auth.UserContext{TenantID: "tenant-1", UserID: "hr-1"}
	finalize := limitedRequest{path: "/api/v1/payroll/periods/p1/finalize", remote: "198.51.100.41:9999", user: hr}
	assert.Equal(t, http.StatusNoContent, finalize.send(limited).Code)
	assert.Equal(t, http.StatusNoContent, finalize.send(limited).Code)
	assert.Equal(t, http.StatusTooManyRequests, finalize.send(limited).Code)
}

func TestSensitiveMutationRateLimitKeysLoginByEmail(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(okHandler())

	ana := limitedRequest{path: "/api/v1/auth/login", body: `{"email":"Ana@Example.com"}`, remote: "192.0.2.1:1"}
	assert.Equal(t, http.StatusNoContent, ana.send(limited).Code)

	sameEmailOtherIP := limitedRequest{path: "/api/v1/auth/login", body: `{"email":"ana@example.com"}`, remote: "192.0.2.2:1"}
	assert.Equal(t, http.StatusTooManyRequests, sameEmailOtherIP.send(limited).Code)
}

func TestExtractJSONFieldRestoresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":" a@example.com ","n":1}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	assert.Equal(t, "a@example.com", extractJSONField(req, "email"))
	assert.Equal(t, "", extractJSONField(req, "n"))

	var rest bytes.Buffer
	_, err := rest.ReadFrom(req.Body)
	require.NoError(t, err)
	assert.Contains(t, rest.String(), `"email"`)
}

func TestSensitiveRateScopeRoutes(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   sensitiveScope
	}{
		{http.MethodPost, "/api/v1/auth/login", sensitiveScopeAuth},
		{http.MethodPost, "/api/v1/auth/mfa/enable", sensitiveScopeAuth},
		{http.MethodPost, "/api/v1/functions/ai/analyze", sensitiveScopeActor},
		{http.MethodPost, "/api/v1/functions/users/import", sensitiveScopeActor},
		{http.MethodPut, "/api/v1/payroll/tables", sensitiveScopeActor},
		{http.MethodPost, "/api/v1/leave/requests/abc/approve", sensitiveScopeActor},
		{http.MethodPost, "/api/v1/payroll/periods/p1/run", sensitiveScopeActor},
		{http.MethodPut, "/api/v1/policies/rules/r1", sensitiveScopeActor},
		{http.MethodPut, "/api/v1/admin/modules/payroll/", sensitiveScopeActor},
		{http.MethodGet, "/api/v1/payroll/periods/p1/run", sensitiveScopeNone},
		{http.MethodPost, "/api/v1/payroll/periods/p1/x/run", sensitiveScopeNone},
		{http.MethodPost, "/api/v1/functions/tax/isr", sensitiveScopeNone},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		assert.Equal(t, tc.want, sensitiveRateScope(req), "%s %s", tc.method, tc.path)
	}
}
