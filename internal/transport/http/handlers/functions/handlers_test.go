package functionshandler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"hris/internal/domain/analysis"
	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/domain/directory"
	"hris/internal/domain/notifications"
	"hris/internal/platform/aigateway"
	"hris/internal/platform/email"
	"hris/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeGateway struct {
	err     error
	content string
}

func (g fakeGateway) Complete(context.Context, aigateway.Request) (aigateway.Completion, error) {
	if g.err != nil {
		return aigateway.Completion{}, g.err
	}
	return aigateway.Completion{Content: g.content, Model: "test-model"}, nil
}

type fakeMailer struct {
	err  error
	sent []email.Message
}

func (m *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Provider() string { return "test" }

type fakeNotifyStore struct {
	notifications.StoreAPI
	created int
}

func (f *fakeNotifyStore) EmailSettings(context.Context, string) (notifications.Settings, error) {
	return notifications.Settings{EmailEnabled: true}, nil
}

func (f *fakeNotifyStore) UserIDsByEmail(context.Context, string, []string) (map[string]string, error) {
	return map[string]string{"ana@example.com": "u-ana"}, nil
}

func (f *fakeNotifyStore) CreateNotification(context.Context, string, string, string, string, string) error {
	f.created++
	return nil
}

type fakeDirectoryStore struct {
	directory.StoreAPI
	writes int
}

func (f *fakeDirectoryStore) ListCompanies(context.Context, string) ([]core.Company, error) {
	return []core.Company{{ID: "c1", Code: "ACME"}}, nil
}

func (f *fakeDirectoryStore) ListGroups(context.Context, string) ([]core.CompanyGroup, error) {
	return nil, nil
}

func (f *fakeDirectoryStore) ListDivisions(context.Context, string) ([]core.Division, error) {
	return nil, nil
}

func (f *fakeDirectoryStore) RoleIDs(context.Context, string) (map[string]string, error) {
	return map[string]string{"employee": "r-emp"}, nil
}

func (f *fakeDirectoryStore) UserEmails(context.Context, string) (map[string]bool, error) {
	return map[string]bool{"taken@example.com": true}, nil
}

func (f *fakeDirectoryStore) EmployeeEmails(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (f *fakeDirectoryStore) CreateUserWithEmployee(context.Context, string, directory.NewUser, core.EmployeeInput) (string, string, error) {
	f.writes++
	return "u-new", "e-new", nil
}

func newRouter(h *Handler) http.Handler {
	h.Perms = allowAll{}
	user := auth.UserContext{UserID: "u-hr", TenantID: "t1", RoleName: auth.RoleHR}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func post(router http.Handler, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeReturnsStructuredResult(t *testing.T) {
	h := &Handler{Analysis: analysis.NewService(fakeGateway{content: `{"sentiment":"positive","score":0.8}`})}
	rec := post(newRouter(h), "/functions/ai/analyze", "application/json",
		[]byte(`{"text":"Great quarter for the team","analysisType":"Sentiment"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "positive", gjson.Get(rec.Body.String(), "data.structured.sentiment").String())
}

func TestAnalyzeMapsGatewayErrors(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{aigateway.ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "rate limit"},
		{aigateway.ErrPaymentRequired, http.StatusPaymentRequired, "payment_required", "credits"},
		{aigateway.ErrNotConfigured, http.StatusInternalServerError, "analysis_failed", "not configured"},
		{aigateway.ErrEmptyCompletion, http.StatusInternalServerError, "analysis_failed", "no content"},
		{&aigateway.UpstreamError{Status: 503, Message: "model overloaded"}, http.StatusInternalServerError, "analysis_failed", "model overloaded"},
	}
	for _, tc := range cases {
		h := &Handler{Analysis: analysis.NewService(fakeGateway{err: tc.err})}
		rec := post(newRouter(h), "/functions/ai/analyze", "application/json",
			[]byte(`{"text":"hola","analysisType":"summary"}`))
		assert.Equal(t, tc.status, rec.Code, tc.code)
		assert.Equal(t, tc.code, gjson.Get(rec.Body.String(), "error.code").String())
		assert.Contains(t, gjson.Get(rec.Body.String(), "error.message").String(), tc.message)
	}
}

func TestAnalyzeRejectsUnknownType(t *testing.T) {
	h := &Handler{Analysis: analysis.NewService(fakeGateway{})}
	rec := post(newRouter(h), "/functions/ai/analyze", "application/json", []byte(`{"text":"hola","analysisType":"poem"}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "analysisType", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}

func TestAnalyzeTokenBucket(t *testing.T) {
	h := &Handler{
		Analysis: analysis.NewService(fakeGateway{content: "ok"}),
		Limiter:  middleware.NewTokenBucket("ai", 1, 1),
	}
	router := newRouter(h)
	body := []byte(`{"text":"hola","analysisType":"summary"}`)

	require.Equal(t, http.StatusOK, post(router, "/functions/ai/analyze", "application/json", body).Code)
	rec := post(router, "/functions/ai/analyze", "application/json", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestSendEmailRendersAndNotifies(t *testing.T) {
	mailer := &fakeMailer{}
	store := &fakeNotifyStore{}
	h := &Handler{Notify: notifications.New(store, mailer, nil, "hr@example.com")}
	rec := post(newRouter(h), "/functions/notifications/email", "application/json",
		[]byte(`{"to":["ana@example.com","ext@example.org"],"subject":"Payroll","markdown":"**Paid** today"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].HTML, "<strong>Paid</strong>")
	assert.Equal(t, 1, store.created)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "data.inAppNotifications").Int())
}

func TestSendEmailValidation(t *testing.T) {
	h := &Handler{Notify: notifications.New(&fakeNotifyStore{}, &fakeMailer{}, nil, "")}
	rec := post(newRouter(h), "/functions/notifications/email", "application/json",
		[]byte(`{"to":["not-an-address"],"subject":"","markdown":"x"}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := gjson.Get(rec.Body.String(), "error.details.fields.#.field").String()
	assert.Contains(t, fields, "subject")
	assert.Contains(t, fields, "to")
}

func TestSendEmailProviderRateLimited(t *testing.T) {
	h := &Handler{Notify: notifications.New(&fakeNotifyStore{}, &fakeMailer{err: email.ErrRateLimited}, nil, "")}
	rec := post(newRouter(h), "/functions/notifications/email", "application/json",
		[]byte(`{"to":["ana@example.com"],"subject":"Hi","markdown":"x"}`))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestImportJSONDryRun(t *testing.T) {
	store := &fakeDirectoryStore{}
	h := &Handler{Directory: directory.NewService(store, nil, nil, nil, 0)}
	rec := post(newRouter(h), "/functions/users/import", "application/json", []byte(`{
		"dryRun": true,
		"rows": [
			{"email":"new@example.com","firstName":"Nora","lastName":"Diaz","companyCode":"ACME","hireDate":"2025-01-06","dailySalary":"450.00"},
			{"email":"taken@example.com","firstName":"Tom","lastName":"Ruiz","companyCode":"ACME","hireDate":"2025-01-06","dailySalary":"450.00"}
		]}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "data.created").Int())
	assert.Equal(t, int64(1), gjson.Get(body, "data.skipped").Int())
	assert.True(t, gjson.Get(body, "data.dryRun").Bool())
	assert.Zero(t, store.writes)
}

func TestImportMultipartCSV(t *testing.T) {
	store := &fakeDirectoryStore{}
	h := &Handler{Directory: directory.NewService(store, nil, nil, nil, 0)}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "people.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Email,First Name,Last Name,Company Code,Hire Date,Daily Salary\nnew@example.com,Nora,Diaz,ACME,2025-01-06,450\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	rec := post(newRouter(h), "/functions/users/import", form.FormDataContentType(), buf.Bytes())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, "created", gjson.Get(rec.Body.String(), "data.results.0.status").String())
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "data.results.0.temporaryPassword").String())
}

func TestImportRejectsMissingColumns(t *testing.T) {
	h := &Handler{Directory: directory.NewService(&fakeDirectoryStore{}, nil, nil, nil, 0)}
	rec := post(newRouter(h), "/functions/users/import", "text/csv", []byte("email,firstName\nx@example.com,X\n"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_upload", gjson.Get(rec.Body.String(), "error.code").String())
}

func TestImportRejectsEmptyRows(t *testing.T) {
	h := &Handler{Directory: directory.NewService(&fakeDirectoryStore{}, nil, nil, nil, 0)}
	rec := post(newRouter(h), "/functions/users/import", "application/json", []byte(`{"rows":[]}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(gjson.Get(rec.Body.String(), "error.message").String(), "no rows"))
}
