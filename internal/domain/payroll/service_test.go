package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/payroll/statutory"
	"hris/internal/platform/cache"
	"hris/internal/platform/events"
)

type fakeStore struct {
	periods   map[string]Period
	companies map[string]Company
	employees []EmployeePayrollData
	results   map[string][]ResultInput
	payslips  map[string]PayslipPDFData
	owners    map[string]string
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		periods: map[string]Period{
			"p1": {ID: "p1", CompanyID: "c1", PeriodType: statutory.PeriodMonthly, StartDate: "2025-01-01", EndDate: "2025-01-31", TaxYear: 2025, Status: PeriodStatusDraft},
		},
		companies: map[string]Company{"c1": {ID: "c1", Name: "Acme", StateCode: "CDMX", RiskClass: "I"}},
		results:   map[string][]ResultInput{},
		payslips:  map[string]PayslipPDFData{},
		owners:    map[string]string{},
	}
}

func (f *fakeStore) CountPeriods(context.Context, string) (int, error) { return len(f.periods), nil }
func (f *fakeStore) ListPeriods(context.Context, string, int, int) ([]Period, error) {
	var out []Period
	for _, p := range f.periods {
		out = append(out, p)
	}
	return out, nil
}
func (f *fakeStore) GetPeriod(_ context.Context, _ string, id string) (Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	return p, nil
}
func (f *fakeStore) CreatePeriod(_ context.Context, _ string, in NewPeriod, taxYear int) (Period, error) {
	p := Period{ID: fmt.Sprintf("p%d", len(f.periods)+1), CompanyID: in.CompanyID, PeriodType: in.PeriodType,
		StartDate: in.StartDate.Format("2006-01-02"), EndDate: in.EndDate.Format("2006-01-02"), TaxYear: taxYear, Status: PeriodStatusDraft}
	f.periods[p.ID] = p
	return p, nil
}
func (f *fakeStore) GetCompany(_ context.Context, _ string, id string) (Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return c, nil
}
func (f *fakeStore) ListActiveEmployees(context.Context, string, string) ([]EmployeePayrollData, error) {
	return f.employees, nil
}
func (f *fakeStore) SaveRun(_ context.Context, _ string, periodID string, results []ResultInput) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.results[periodID] = results
	p := f.periods[periodID]
	p.Status = PeriodStatusReviewed
	f.periods[periodID] = p
	return nil
}
func (f *fakeStore) CountResults(_ context.Context, _ string, periodID string) (int, error) {
	return len(f.results[periodID]), nil
}
func (f *fakeStore) ListResults(context.Context, string, string) ([]Result, error) { return nil, nil }
func (f *fakeStore) FinalizePeriod(_ context.Context, _ string, periodID string) (int, error) {
	p := f.periods[periodID]
	p.Status = PeriodStatusFinalized
	f.periods[periodID] = p
	return len(f.results[periodID]), nil
}
func (f *fakeStore) EmployeeIDByUserID(context.Context, string, string) (string, error) { return "", nil }
func (f *fakeStore) CountPayslips(context.Context, string, string) (int, error)         { return 0, nil }
func (f *fakeStore) ListPayslips(context.Context, string, string, int, int) ([]Payslip, error) {
	return nil, nil
}
func (f *fakeStore) PayslipOwner(_ context.Context, _ string, id string) (string, error) {
	owner, ok := f.owners[id]
	if !ok {
		return "", ErrPayslipNotFound
	}
	return owner, nil
}
func (f *fakeStore) PayslipPDFData(_ context.Context, _ string, id string) (PayslipPDFData, error) {
	data, ok := f.payslips[id]
	if !ok {
		return PayslipPDFData{}, ErrPayslipNotFound
	}
	return data, nil
}

type recordingPublisher struct{ events []events.Event }

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return nil
}
func (r *recordingPublisher) Close() error { return nil }

type upperOpener struct{}

func (upperOpener) OpenString(value string) (string, error) {
	if value == "broken" {
		return "", errors.New("bad ciphertext")
	}
	return value, nil
}

func builtinCalculator(t *testing.T) *statutory.Calculator {
	t.Helper()
	builtin, err := statutory.BuiltinTableSets()
	require.NoError(t, err)
	return statutory.NewCalculator(builtin)
}

func salary(v float64) *float64 { return &v }

func TestRunPeriodComputesAndSkips(t *testing.T) {
	store := newFakeStore()
	store.employees = []EmployeePayrollData{
		{EmployeeID: "e1", HireDate: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), DailySalary: salary(500)},
		{EmployeeID: "e2", HireDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), DailySalarySealed: "650.50"},
		{EmployeeID: "e3", HireDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), DailySalarySealed: "broken"},
		{EmployeeID: "e4", HireDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	pub := &recordingPublisher{}
	svc := NewService(store, builtinCalculator(t), upperOpener{}, pub)

	summary, err := svc.RunPeriod(context.Background(), "t1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.EmployeeCount)
	assert.Len(t, summary.Skipped, 2)
	assert.Equal(t, 2025, summary.TaxYear)
	assert.Greater(t, summary.TotalGross, summary.TotalNet)

	saved := store.results["p1"]
	require.Len(t, saved, 2)
	assert.Equal(t, "e1", saved[0].EmployeeID)
	assert.InDelta(t, 15200, saved[0].Gross, 0.01)
	assert.Greater(t, saved[0].ISN, 0.0)
	assert.InDelta(t, saved[0].Gross-saved[0].ISR-saved[0].IMSSEmployee, saved[0].Net, 0.011)
	assert.Equal(t, PeriodStatusReviewed, store.periods["p1"].Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.PayrollPeriodRun, pub.events[0].Type)
	assert.Equal(t, "t1", pub.events[0].TenantID)
}

func TestRunPeriodRejectsFinalizedAndMissingTables(t *testing.T) {
	store := newFakeStore()
	store.employees = []EmployeePayrollData{{EmployeeID: "e1", DailySalary: salary(400)}}
	svc := NewService(store, builtinCalculator(t), nil, nil)

	p := store.periods["p1"]
	p.Status = PeriodStatusFinalized
	store.periods["p1"] = p
	_, err := svc.RunPeriod(context.Background(), "t1", "p1")
	require.ErrorIs(t, err, ErrPeriodFinalized)

	store.periods["p2"] = Period{ID: "p2", CompanyID: "c1", PeriodType: statutory.PeriodMonthly, StartDate: "2031-01-01", EndDate: "2031-01-31", TaxYear: 2031, Status: PeriodStatusDraft}
	_, err = svc.RunPeriod(context.Background(), "t1", "p2")
	require.ErrorIs(t, err, statutory.ErrTableNotFound)
	assert.Empty(t, store.results["p2"])
}

func TestRunPeriodWithoutEmployees(t *testing.T) {
	svc := NewService(newFakeStore(), builtinCalculator(t), nil, nil)
	_, err := svc.RunPeriod(context.Background(), "t1", "p1")
	require.ErrorIs(t, err, ErrNoEmployees)
}

func TestFinalizeStateMachine(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, builtinCalculator(t), nil, nil)
	ctx := context.Background()

	_, err := svc.FinalizePeriod(ctx, "t1", "p1")
	require.ErrorIs(t, err, ErrFinalizeInvalidState)

	p := store.periods["p1"]
	p.Status = PeriodStatusReviewed
	store.periods["p1"] = p
	_, err = svc.FinalizePeriod(ctx, "t1", "p1")
	require.ErrorIs(t, err, ErrFinalizeNoResults)

	store.results["p1"] = []ResultInput{{EmployeeID: "e1"}}
	count, err := svc.FinalizePeriod(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, PeriodStatusFinalized, store.periods["p1"].Status)
}

func TestCreatePeriodUsesStartYear(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, builtinCalculator(t), nil, nil)
	p, err := svc.CreatePeriod(context.Background(), "t1", NewPeriod{
		CompanyID:  "c1",
		PeriodType: statutory.PeriodBiweekly,
		StartDate:  time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 2024, p.TaxYear)

	_, err = svc.CreatePeriod(context.Background(), "t1", NewPeriod{CompanyID: "missing"})
	require.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestPayslipPDFRendersInMemory(t *testing.T) {
	store := newFakeStore()
	store.payslips["s1"] = PayslipPDFData{
		PayslipID: "s1", CompanyName: "Acme", FirstName: "Ana", LastName: "Pérez",
		PeriodType: "monthly", StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		Gross: 15000, ISR: 1500, IMSSEmployee: 400, Net: 13100,
		Breakdown: []byte(`{"isr":{"determinedTax":1500},"imss":{"lines":[{"name":"Invalidez y vida","employee":93.75}]}}`),
	}
	svc := NewService(store, builtinCalculator(t), nil, nil)

	pdf, err := svc.PayslipPDF(context.Background(), "t1", "s1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = svc.PayslipPDF(context.Background(), "t1", "missing")
	require.ErrorIs(t, err, ErrPayslipNotFound)
}

type fakeTableStore struct {
	statutory.StaticSource
	upserts int
}

func (f *fakeTableStore) UpsertTableSet(_ context.Context, set statutory.TableSet) error {
	f.StaticSource[set.Year] = set
	f.upserts++
	return nil
}

func (f *fakeTableStore) Years(context.Context) ([]int, error) {
	years := f.StaticSource.Years()
	sort.Ints(years)
	return years, nil
}

func TestTableServiceSeedsAndInvalidates(t *testing.T) {
	store := &fakeTableStore{StaticSource: statutory.StaticSource{}}
	backend := cache.NewMemory()
	cached := NewCachedSource(store, backend, time.Hour)
	svc := NewTableService(store, cached)
	ctx := context.Background()

	seeded, err := svc.SeedBuiltin(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, seeded)

	first, err := cached.TableSet(ctx, 2025)
	require.NoError(t, err)
	_, err = backend.Get(ctx, "statutory:set:2025")
	require.NoError(t, err)

	updated := first
	updated.Values.UMADaily = first.Values.UMADaily + 1
	require.NoError(t, svc.Store(ctx, updated))
	_, err = backend.Get(ctx, "statutory:set:2025")
	require.ErrorIs(t, err, cache.ErrMiss)

	again, err := cached.TableSet(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, updated.Values.UMADaily, again.Values.UMADaily)

	seeded, err = svc.SeedBuiltin(ctx)
	require.NoError(t, err)
	assert.Empty(t, seeded)
}

func TestCachedSourceDoesNotCacheMissingYears(t *testing.T) {
	store := &fakeTableStore{StaticSource: statutory.StaticSource{}}
	backend := cache.NewMemory()
	cached := NewCachedSource(store, backend, time.Hour)

	_, err := cached.TableSet(context.Background(), 2030)
	require.ErrorIs(t, err, statutory.ErrTableNotFound)
	_, err = backend.Get(context.Background(), "statutory:set:2030")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestTableServiceUploadRejectsInvalid(t *testing.T) {
	svc := NewTableService(&fakeTableStore{StaticSource: statutory.StaticSource{}}, nil)
	_, err := svc.Upload(context.Background(), []byte("year: 1990\n"))
	require.ErrorIs(t, err, statutory.ErrInvalidInput)
}
