package payroll

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hris/internal/domain/payroll/statutory"
	"hris/internal/platform/events"
	"hris/internal/platform/localdate"
	"hris/internal/platform/metrics"
	"hris/internal/platform/requestctx"
)

// FieldOpener decrypts sealed column values; plaintext passes through.
type FieldOpener interface {
	OpenString(value string) (string, error)
}

type Service struct {
	store  StoreAPI
	calc   *statutory.Calculator
	opener FieldOpener
	events events.Publisher
	now    func() time.Time
}

func NewService(store StoreAPI, calc *statutory.Calculator, opener FieldOpener, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{store: store, calc: calc, opener: opener, events: publisher, now: time.Now}
}

func (s *Service) Calculator() *statutory.Calculator {
	return s.calc
}

func (s *Service) CountPeriods(ctx context.Context, tenantID string) (int, error) {
	return s.store.CountPeriods(ctx, tenantID)
}

func (s *Service) ListPeriods(ctx context.Context, tenantID string, limit, offset int) ([]Period, error) {
	return s.store.ListPeriods(ctx, tenantID, limit, offset)
}

func (s *Service) GetPeriod(ctx context.Context, tenantID, periodID string) (Period, error) {
	return s.store.GetPeriod(ctx, tenantID, periodID)
}

// CreatePeriod opens a draft period. The tax year is the year the period starts in.
func (s *Service) CreatePeriod(ctx context.Context, tenantID string, in NewPeriod) (Period, error) {
	if _, err := s.store.GetCompany(ctx, tenantID, in.CompanyID); err != nil {
		return Period{}, err
	}
	return s.store.CreatePeriod(ctx, tenantID, in, in.StartDate.Year())
}

// RunPeriod computes every active employee of the period's company against the
// tax year's tables, fetched once. Missing tables abort the run before anything
// is written; an employee whose data fails validation is skipped and reported.
func (s *Service) RunPeriod(ctx context.Context, tenantID, periodID string) (RunSummary, error) {
	period, err := s.store.GetPeriod(ctx, tenantID, periodID)
	if err != nil {
		return RunSummary{}, err
	}
	if period.Status == PeriodStatusFinalized {
		return RunSummary{}, ErrPeriodFinalized
	}
	company, err := s.store.GetCompany(ctx, tenantID, period.CompanyID)
	if err != nil {
		return RunSummary{}, err
	}
	tables, err := s.calc.Tables(ctx, period.TaxYear)
	if err != nil {
		return RunSummary{}, err
	}
	employees, err := s.store.ListActiveEmployees(ctx, tenantID, company.ID)
	if err != nil {
		return RunSummary{}, err
	}
	if len(employees) == 0 {
		return RunSummary{}, ErrNoEmployees
	}

	periodEnd, err := localdate.ParseLocalDate(period.EndDate)
	if err != nil {
		return RunSummary{}, fmt.Errorf("period end date: %w", err)
	}

	logger := requestctx.Logger(ctx)
	results := make([]ResultInput, 0, len(employees))
	var skipped []SkippedEmployee
	for _, employee := range employees {
		salary, err := s.dailySalary(employee)
		if err != nil {
			logger.Warn("payroll salary decode failed", "employeeId", employee.EmployeeID, "err", err)
			skipped = append(skipped, SkippedEmployee{EmployeeID: employee.EmployeeID, Reason: "daily salary could not be read"})
			continue
		}
		calc, err := statutory.CalculatePayroll(tables, statutory.PayrollInput{
			DailySalary:         salary,
			VariableDailyIncome: employee.VariableDailyIncome,
			PeriodType:          period.PeriodType,
			YearsOfService:      localdate.CompletedYears(employee.HireDate, periodEnd),
			ApplySubsidy:        true,
			RiskClass:           company.RiskClass,
			StateCode:           company.StateCode,
		})
		metrics.RecordCalculation("payroll_run", err)
		if errors.Is(err, statutory.ErrInvalidInput) {
			skipped = append(skipped, SkippedEmployee{EmployeeID: employee.EmployeeID, Reason: err.Error()})
			continue
		}
		if err != nil {
			return RunSummary{}, err
		}
		result, err := resultFromCalculation(employee.EmployeeID, calc)
		if err != nil {
			return RunSummary{}, err
		}
		results = append(results, result)
	}

	if err := s.store.SaveRun(ctx, tenantID, periodID, results); err != nil {
		return RunSummary{}, err
	}

	summary := summarize(periodID, period.TaxYear, results, skipped)
	events.Emit(ctx, s.events, events.Event{
		Type:     events.PayrollPeriodRun,
		TenantID: tenantID,
		Payload: map[string]any{
			"periodId":      periodID,
			"employeeCount": summary.EmployeeCount,
			"totalNet":      summary.TotalNet,
		},
	})
	return summary, nil
}

func (s *Service) dailySalary(employee EmployeePayrollData) (float64, error) {
	if employee.DailySalarySealed != "" && s.opener != nil {
		plain, err := s.opener.OpenString(employee.DailySalarySealed)
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(strings.TrimSpace(plain), 64)
	}
	if employee.DailySalary != nil {
		return *employee.DailySalary, nil
	}
	return 0, nil
}

func (s *Service) FinalizePeriod(ctx context.Context, tenantID, periodID string) (int, error) {
	period, err := s.store.GetPeriod(ctx, tenantID, periodID)
	if err != nil {
		return 0, err
	}
	if period.Status != PeriodStatusReviewed {
		return 0, ErrFinalizeInvalidState
	}
	count, err := s.store.CountResults(ctx, tenantID, periodID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ErrFinalizeNoResults
	}
	return s.store.FinalizePeriod(ctx, tenantID, periodID)
}

func (s *Service) ListResults(ctx context.Context, tenantID, periodID string) ([]Result, error) {
	if _, err := s.store.GetPeriod(ctx, tenantID, periodID); err != nil {
		return nil, err
	}
	return s.store.ListResults(ctx, tenantID, periodID)
}

func (s *Service) EmployeeIDForUser(ctx context.Context, tenantID, userID string) (string, error) {
	return s.store.EmployeeIDByUserID(ctx, tenantID, userID)
}

func (s *Service) CountPayslips(ctx context.Context, tenantID, employeeID string) (int, error) {
	return s.store.CountPayslips(ctx, tenantID, employeeID)
}

func (s *Service) ListPayslips(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Payslip, error) {
	return s.store.ListPayslips(ctx, tenantID, employeeID, limit, offset)
}

func (s *Service) PayslipOwner(ctx context.Context, tenantID, payslipID string) (string, error) {
	return s.store.PayslipOwner(ctx, tenantID, payslipID)
}

// PayslipPDF renders the payslip in memory; nothing is written to disk.
func (s *Service) PayslipPDF(ctx context.Context, tenantID, payslipID string) ([]byte, error) {
	data, err := s.store.PayslipPDFData(ctx, tenantID, payslipID)
	if err != nil {
		return nil, err
	}
	return RenderPayslip(data)
}
