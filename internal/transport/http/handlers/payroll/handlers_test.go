package payrollhandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"hris/internal/domain/auth"
	"hris/internal/domain/payroll"
	"hris/internal/domain/payroll/statutory"
	"hris/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeStore struct {
	payroll.StoreAPI
	periods map[string]payroll.Period
	owners  map[string]string
	selfID  string
	loadErr error
}

func (f *fakeStore) GetPeriod(_ context.Context, _, id string) (payroll.Period, error) {
	if f.loadErr != nil {
		return payroll.Period{}, f.loadErr
	}
	p, ok := f.periods[id]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakeStore) PayslipOwner(_ context.Context, _, id string) (string, error) {
	owner, ok := f.owners[id]
	if !ok {
		return "", payroll.ErrPayslipNotFound
	}
	return owner, nil
}

func (f *fakeStore) EmployeeIDByUserID(context.Context, string, string) (string, error) {
	return f.selfID, nil
}

func newRouter(t *testing.T, store *fakeStore, user auth.UserContext) http.Handler {
	t.Helper()
	sets, err := statutory.BuiltinTableSets()
	require.NoError(t, err)
	service := payroll.NewService(store, statutory.NewCalculator(sets), nil, nil)
	h := NewHandler(service, nil, allowAll{}, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	h.RegisterFunctionRoutes(r)
	return r
}

var hrUser = auth.UserContext{UserID: "u-hr", TenantID: "t1", RoleName: auth.RoleHR}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestISRFunctionReturnsBracket(t *testing.T) {
	router := newRouter(t, &fakeStore{}, hrUser)

	rec := post(router, "/functions/tax/isr", `{"grossIncome":10000,"periodType":"monthly","taxYear":2024}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.LessOrEqual(t, gjson.Get(body, "data.bracket.lowerLimit").Float(), 10000.0)
	upper := gjson.Get(body, "data.bracket.upperLimit")
	if upper.Exists() && upper.Type != gjson.Null {
		assert.GreaterOrEqual(t, upper.Float(), 10000.0)
	}
	assert.Equal(t, int64(2024), gjson.Get(body, "data.year").Int())
}

func TestTaxFunctionMissingYearIsUnprocessable(t *testing.T) {
	router := newRouter(t, &fakeStore{}, hrUser)

	rec := post(router, "/functions/tax/isn", `{"taxablePayroll":50000,"stateCode":"CDMX","taxYear":2019}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "rate_table_missing", gjson.Get(rec.Body.String(), "error.code").String())
	assert.Equal(t, int64(2019), gjson.Get(rec.Body.String(), "error.details.year").Int())
}

func TestTaxFunctionRejectsNonPositiveBase(t *testing.T) {
	router := newRouter(t, &fakeStore{}, hrUser)

	rec := post(router, "/functions/tax/sdi", `{"dailySalary":0,"taxYear":2024}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "validation_error", gjson.Get(body, "error.code").String())
	assert.Equal(t, "dailySalary", gjson.Get(body, "error.details.fields.0.field").String())
}

func TestSDIFunctionCapsSBC(t *testing.T) {
	router := newRouter(t, &fakeStore{}, hrUser)

	rec := post(router, "/functions/tax/sdi", `{"dailySalary":5000,"yearsOfService":3,"taxYear":2024}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sets, err := statutory.BuiltinTableSets()
	require.NoError(t, err)
	uma := sets[2024].Values.UMADaily
	assert.LessOrEqual(t, gjson.Get(rec.Body.String(), "data.sbcCapped").Float(), 25*uma+0.01)
}

func TestFinalizeDraftPeriodConflicts(t *testing.T) {
	store := &fakeStore{periods: map[string]payroll.Period{
		"p1": {ID: "p1", Status: payroll.PeriodStatusDraft},
	}}
	router := newRouter(t, store, hrUser)

	rec := post(router, "/payroll/periods/p1/finalize", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", gjson.Get(rec.Body.String(), "error.code").String())
}

func TestUnexpectedStoreErrorCarriesMessage(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("connection reset by peer")}
	router := newRouter(t, store, hrUser)

	rec := post(router, "/payroll/periods/p1/finalize", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "payroll_finalize_failed", gjson.Get(body, "error.code").String())
	assert.Contains(t, gjson.Get(body, "error.message").String(), "connection reset by peer")
}

func TestCreatePeriodValidatesDates(t *testing.T) {
	router := newRouter(t, &fakeStore{}, hrUser)

	rec := post(router, "/payroll/periods", `{"companyId":"c1","periodType":"fortnight","startDate":"2025-02-01","endDate":"2025-01-01"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"periodType"`)
	assert.Contains(t, body, `"endDate"`)
}

func TestDownloadPayslipOfAnotherEmployeeIsForbidden(t *testing.T) {
	store := &fakeStore{owners: map[string]string{"ps1": "emp-other"}, selfID: "emp-me"}
	router := newRouter(t, store, auth.UserContext{UserID: "u-me", TenantID: "t1", RoleName: auth.RoleEmployee})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payroll/payslips/ps1/download", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
