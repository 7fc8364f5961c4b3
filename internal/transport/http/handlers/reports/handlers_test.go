package reportshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"hris/internal/domain/auth"
	"hris/internal/domain/performance"
	"hris/internal/domain/reports"
	"hris/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeStore struct {
	reports.StoreAPI
	jobFilter reports.JobRunFilter
}

func (f *fakeStore) EmployeeIDByUserID(context.Context, string, string) (string, error) {
	return "e1", nil
}

func (f *fakeStore) LeaveTotals(context.Context, string, string) (reports.LeaveTotals, error) {
	return reports.LeaveTotals{Available: 12, Pending: 2}, nil
}

func (f *fakeStore) Payslips(context.Context, string, string) (int, *reports.PayslipSummary, error) {
	return 3, &reports.PayslipSummary{ID: "ps3", Net: 15000}, nil
}

func (f *fakeStore) EmployeeGoals(context.Context, string, string) ([]performance.Goal, error) {
	return nil, nil
}

func (f *fakeStore) PendingFeedback(context.Context, string, string) (int, error) { return 1, nil }

func (f *fakeStore) HeadcountByCompany(context.Context, string) (map[string]int, error) {
	return map[string]int{"c1": 4, "c2": 6}, nil
}

func (f *fakeStore) OpenCycles(context.Context, string) (int, int, error) { return 1, 2, nil }

func (f *fakeStore) PayrollPeriodsByStatus(context.Context, string) (map[string]int, error) {
	return map[string]int{"draft": 1}, nil
}

func (f *fakeStore) PendingLeave(context.Context, string) (int, error) { return 5, nil }

func (f *fakeStore) CountJobRuns(_ context.Context, _ string, filter reports.JobRunFilter) (int, error) {
	f.jobFilter = filter
	return 1, nil
}

func (f *fakeStore) ListJobRuns(context.Context, string, reports.JobRunFilter, int, int) ([]reports.JobRun, error) {
	return []reports.JobRun{{ID: "j1", JobType: "reminders", Status: "completed"}}, nil
}

func newRouter(store *fakeStore, user auth.UserContext) http.Handler {
	h := NewHandler(reports.NewService(store), allowAll{})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

var (
	employee = auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: auth.RoleEmployee}
	hr       = auth.UserContext{UserID: "u2", TenantID: "t1", RoleName: auth.RoleHR}
)

func TestEmployeeDashboard(t *testing.T) {
	rec := get(newRouter(&fakeStore{}, employee), "/reports/dashboard/employee")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Equal(t, float64(12), gjson.Get(body, "data.leaveAvailable").Float())
	assert.Equal(t, int64(3), gjson.Get(body, "data.payslipCount").Int())
	assert.Equal(t, "ps3", gjson.Get(body, "data.latestPayslip.id").String())
}

func TestHRDashboardRequiresHR(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, get(newRouter(&fakeStore{}, employee), "/reports/dashboard/hr").Code)
	assert.Equal(t, http.StatusForbidden, get(newRouter(&fakeStore{}, employee), "/reports/dashboard/manager").Code)

	rec := get(newRouter(&fakeStore{}, hr), "/reports/dashboard/hr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(10), gjson.Get(rec.Body.String(), "data.headcount").Int())
}

func TestJobRunsFilter(t *testing.T) {
	store := &fakeStore{}
	rec := get(newRouter(store, hr), "/reports/jobs?jobType=reminders&from=2025-01-01&to=2025-01-31")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, "reminders", store.jobFilter.JobType)
	require.NotNil(t, store.jobFilter.StartedTo)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *store.jobFilter.StartedTo)
}

func TestJobRunsRequireHR(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, get(newRouter(&fakeStore{}, employee), "/reports/jobs").Code)
}
