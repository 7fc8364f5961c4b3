package leavehandler

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
	"hris/internal/domain/leave"
	"hris/internal/domain/policy"
	"hris/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeAccess struct {
	self map[string]string
}

func (f fakeAccess) EmployeeIDByUserID(_ context.Context, _, userID string) (string, error) {
	return f.self[userID], nil
}

func (f fakeAccess) CanAccess(_ context.Context, viewer auth.UserContext, employeeID string) (bool, error) {
	return viewer.IsHR() || f.self[viewer.UserID] == employeeID, nil
}

type fakeStore struct {
	leave.StoreAPI
	balance *leave.Balance
	request leave.Request
	created *leave.RequestInput
}

func (f *fakeStore) GetType(_ context.Context, _, id string) (leave.LeaveType, error) {
	return leave.LeaveType{ID: id, Code: "VAC", Name: "Vacation", IsPaid: true}, nil
}

func (f *fakeStore) EmployeeInfo(_ context.Context, _, id string) (leave.EmployeeInfo, error) {
	if id == "ana" {
		return leave.EmployeeInfo{ID: "ana", UserID: "u-ana", Name: "Ana", ManagerUserID: "u-leo"}, nil
	}
	return leave.EmployeeInfo{ID: id}, nil
}

func (f *fakeStore) GetBalance(context.Context, string, string, string) (*leave.Balance, error) {
	return f.balance, nil
}

func (f *fakeStore) CreateRequest(_ context.Context, _ string, in leave.RequestInput, days float64) (leave.Request, error) {
	f.created = &in
	return leave.Request{ID: "lr1", EmployeeID: in.EmployeeID, Days: days, Status: leave.StatusPending}, nil
}

func (f *fakeStore) GetRequest(context.Context, string, string) (leave.Request, error) {
	return f.request, nil
}

type warningPolicies struct{}

func (warningPolicies) Enforce(context.Context, policy.Enforcement) (policy.Decision, error) {
	eval := policy.Evaluation{
		Violations: []policy.Finding{},
		Warnings:   []policy.Finding{{RuleID: "r1", Code: "NOTICE", Severity: policy.SeverityWarning}},
	}
	return policy.Decision{Evaluation: eval}, &policy.DecisionError{Err: policy.ErrPolicyWarning, Evaluation: eval}
}

func (warningPolicies) RecordOverrides(context.Context, string, string, string, string, string, []policy.Override) error {
	return nil
}

var ana = auth.UserContext{UserID: "u-ana", TenantID: "t1", RoleName: auth.RoleEmployee}

func newRouter(service *leave.Service, user auth.UserContext) http.Handler {
	access := fakeAccess{self: map[string]string{"u-ana": "ana", "u-leo": "leo"}}
	h := NewHandler(service, access, allowAll{}, nil)
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

func TestCreateRequestDefaultsToCaller(t *testing.T) {
	store := &fakeStore{}
	router := newRouter(leave.NewService(store, nil, nil), ana)

	rec := do(router, http.MethodPost, "/leave/requests",
		`{"leaveTypeId":"lt1","startDate":"2025-03-10","endDate":"2025-03-12","endHalf":true}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, store.created)
	assert.Equal(t, "ana", store.created.EmployeeID)
	assert.InDelta(t, 2.5, gjson.Get(rec.Body.String(), "data.request.days").Float(), 1e-9)
}

func TestCreateRequestPolicyWarningNeedsJustification(t *testing.T) {
	router := newRouter(leave.NewService(&fakeStore{}, warningPolicies{}, nil), ana)

	rec := do(router, http.MethodPost, "/leave/requests",
		`{"leaveTypeId":"lt1","startDate":"2025-03-10","endDate":"2025-03-10"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "policy_warning", gjson.Get(body, "error.code").String())
	assert.Equal(t, "NOTICE", gjson.Get(body, "error.details.warnings.0.code").String())
}

func TestCreateRequestRejectsReversedDates(t *testing.T) {
	router := newRouter(leave.NewService(&fakeStore{}, nil, nil), ana)

	rec := do(router, http.MethodPost, "/leave/requests",
		`{"leaveTypeId":"lt1","startDate":"2025-03-12","endDate":"2025-03-10"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", gjson.Get(rec.Body.String(), "error.code").String())
}

func TestCreateRequestInsufficientBalance(t *testing.T) {
	store := &fakeStore{balance: &leave.Balance{Available: 1}}
	router := newRouter(leave.NewService(store, nil, nil), ana)

	rec := do(router, http.MethodPost, "/leave/requests",
		`{"leaveTypeId":"lt1","startDate":"2025-03-10","endDate":"2025-03-12"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "insufficient_balance", gjson.Get(rec.Body.String(), "error.code").String())
	assert.Nil(t, store.created)
}

func TestCreateRequestForOtherEmployeeForbidden(t *testing.T) {
	router := newRouter(leave.NewService(&fakeStore{}, nil, nil), ana)

	rec := do(router, http.MethodPost, "/leave/requests",
		`{"employeeId":"leo","leaveTypeId":"lt1","startDate":"2025-03-10","endDate":"2025-03-10"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApproveOwnRequestForbidden(t *testing.T) {
	store := &fakeStore{request: leave.Request{ID: "lr1", EmployeeID: "ana", Status: leave.StatusPending}}
	hrAna := auth.UserContext{UserID: "u-ana", TenantID: "t1", RoleName: auth.RoleHR}
	router := newRouter(leave.NewService(store, nil, nil), hrAna)

	rec := do(router, http.MethodPost, "/leave/requests/lr1/approve", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelDecidedRequestConflicts(t *testing.T) {
	store := &fakeStore{request: leave.Request{ID: "lr1", EmployeeID: "ana", Status: leave.StatusApproved}}
	router := newRouter(leave.NewService(store, nil, nil), ana)

	rec := do(router, http.MethodPost, "/leave/requests/lr1/cancel", "")

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", gjson.Get(rec.Body.String(), "error.code").String())
}
