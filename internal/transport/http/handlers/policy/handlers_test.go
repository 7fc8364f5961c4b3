package policyhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"hris/internal/domain/auth"
	"hris/internal/domain/policy"
	"hris/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeStore struct {
	policy.StoreAPI
	rules   []policy.Rule
	created []policy.RuleInput
}

func (f *fakeStore) ApplicableRules(_ context.Context, _, _, ctxName string) ([]policy.Rule, error) {
	var out []policy.Rule
	for _, rule := range f.rules {
		if rule.Context == ctxName && rule.Active {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRule(_ context.Context, _, id string) (policy.Rule, error) {
	for _, rule := range f.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return policy.Rule{}, policy.ErrRuleNotFound
}

func (f *fakeStore) CreateRule(_ context.Context, _ string, in policy.RuleInput) (policy.Rule, error) {
	f.created = append(f.created, in)
	return policy.Rule{ID: "r-new", Code: in.Code, Context: in.Context, RuleType: in.RuleType, Severity: in.Severity, Config: in.Config, Active: in.Active}, nil
}

func newRouter(store *fakeStore) http.Handler {
	h := NewHandler(policy.NewService(store, nil), allowAll{}, nil)
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

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestCreateRuleDefaultsToBlocking(t *testing.T) {
	store := &fakeStore{}
	rec := do(newRouter(store), http.MethodPost, "/policies/rules",
		`{"code":"LV-MAX","name":"Max leave","context":"Leave","ruleType":"time_limit","config":{"maxDays":10}}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.created, 1)
	assert.Equal(t, policy.SeverityBlocking, store.created[0].Severity)
	assert.Equal(t, "leave", store.created[0].Context)
	assert.True(t, store.created[0].Active)
}

func TestCreateRuleRejectsUnknownType(t *testing.T) {
	rec := do(newRouter(&fakeStore{}), http.MethodPost, "/policies/rules",
		`{"code":"X","name":"X","context":"leave","ruleType":"moon_phase"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ruleType", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}

func TestCreateRuleRejectsIncompleteConfig(t *testing.T) {
	rec := do(newRouter(&fakeStore{}), http.MethodPost, "/policies/rules",
		`{"code":"AGE","name":"Adults","context":"hiring","ruleType":"age_restriction","config":{}}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "config", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}

func TestGetMissingRule(t *testing.T) {
	rec := do(newRouter(&fakeStore{}), http.MethodGet, "/policies/rules/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluateReportsFindings(t *testing.T) {
	store := &fakeStore{rules: []policy.Rule{
		{ID: "r1", Code: "MAX", Context: "leave", RuleType: policy.RuleTimeLimit, Severity: policy.SeverityBlocking, Config: []byte(`{"maxDays":5}`), Active: true},
		{ID: "r2", Code: "DOCS", Context: "leave", RuleType: policy.RuleDocumentRequired, Severity: policy.SeverityWarning, Config: []byte(`{"documents":["medical_note"]}`), Active: true},
	}}
	rec := do(newRouter(store), http.MethodPost, "/policies/evaluate",
		`{"context":"leave","payload":{"days":8,"documents":[]}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.False(t, gjson.Get(body, "data.allowed").Bool())
	assert.Equal(t, "MAX", gjson.Get(body, "data.violations.0.code").String())
	assert.Equal(t, "DOCS", gjson.Get(body, "data.warnings.0.code").String())
}

func TestEvaluateRequiresContext(t *testing.T) {
	rec := do(newRouter(&fakeStore{}), http.MethodPost, "/policies/evaluate", `{"payload":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "context", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}
