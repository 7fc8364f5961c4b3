package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/platform/localdate"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CountPeriods(ctx context.Context, tenantID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_periods WHERE tenant_id = $1", tenantID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

const periodColumns = `
    p.id, p.company_id, c.name, p.period_type, p.start_date, p.end_date,
    p.tax_year, p.status, p.created_at, p.finalized_at
`

func scanPeriod(row pgx.Row) (Period, error) {
	var period Period
	var start, end time.Time
	if err := row.Scan(&period.ID, &period.CompanyID, &period.CompanyName, &period.PeriodType, &start, &end,
		&period.TaxYear, &period.Status, &period.CreatedAt, &period.FinalizedAt); err != nil {
		return Period{}, err
	}
	period.StartDate = localdate.ToDateString(start)
	period.EndDate = localdate.ToDateString(end)
	return period, nil
}

func (s *Store) ListPeriods(ctx context.Context, tenantID string, limit, offset int) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+periodColumns+`
    FROM payroll_periods p
    JOIN companies c ON c.id = p.company_id
    WHERE p.tenant_id = $1
    ORDER BY p.start_date DESC
    LIMIT $2 OFFSET $3
  `, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}

func (s *Store) GetPeriod(ctx context.Context, tenantID, periodID string) (Period, error) {
	period, err := scanPeriod(s.DB.QueryRow(ctx, `
    SELECT `+periodColumns+`
    FROM payroll_periods p
    JOIN companies c ON c.id = p.company_id
    WHERE p.tenant_id = $1 AND p.id = $2
  `, tenantID, periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return period, err
}

func (s *Store) CreatePeriod(ctx context.Context, tenantID string, period NewPeriod, taxYear int) (Period, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_periods (tenant_id, company_id, period_type, start_date, end_date, tax_year)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, tenantID, period.CompanyID, string(period.PeriodType), period.StartDate, period.EndDate, taxYear).Scan(&id); err != nil {
		return Period{}, err
	}
	return s.GetPeriod(ctx, tenantID, id)
}

func (s *Store) GetCompany(ctx context.Context, tenantID, companyID string) (Company, error) {
	var company Company
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, state_code, risk_class
    FROM companies
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, companyID).Scan(&company.ID, &company.Name, &company.StateCode, &company.RiskClass)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	return company, err
}

func (s *Store) ListActiveEmployees(ctx context.Context, tenantID, companyID string) ([]EmployeePayrollData, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, first_name, last_name, hire_date, daily_salary, COALESCE(daily_salary_enc, ''), variable_daily_income
    FROM employees
    WHERE tenant_id = $1 AND company_id = $2 AND status = $3
    ORDER BY last_name, first_name
  `, tenantID, companyID, EmployeeStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmployeePayrollData
	for rows.Next() {
		var employee EmployeePayrollData
		if err := rows.Scan(&employee.EmployeeID, &employee.FirstName, &employee.LastName, &employee.HireDate,
			&employee.DailySalary, &employee.DailySalarySealed, &employee.VariableDailyIncome); err != nil {
			return nil, err
		}
		out = append(out, employee)
	}
	return out, rows.Err()
}

// SaveRun replaces the period's results and marks it reviewed in one
// transaction; a failure leaves the previous run intact.
func (s *Store) SaveRun(ctx context.Context, tenantID, periodID string, results []ResultInput) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM payroll_results WHERE tenant_id = $1 AND period_id = $2", tenantID, periodID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, r := range results {
		warnings := r.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		batch.Queue(`
      INSERT INTO payroll_results (tenant_id, period_id, employee_id, gross, isr, imss_employee, imss_employer, isn, net, breakdown_json, warnings_json)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `, tenantID, periodID, r.EmployeeID, r.Gross, r.ISR, r.IMSSEmployee, r.IMSSEmployer, r.ISN, r.Net, r.Breakdown, warnings)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `
    UPDATE payroll_periods SET status = $1
    WHERE tenant_id = $2 AND id = $3 AND status <> $4
  `, PeriodStatusReviewed, tenantID, periodID, PeriodStatusFinalized)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodFinalized
	}
	return tx.Commit(ctx)
}

func (s *Store) CountResults(ctx context.Context, tenantID, periodID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_results WHERE tenant_id = $1 AND period_id = $2", tenantID, periodID).Scan(&total)
	return total, err
}

func (s *Store) ListResults(ctx context.Context, tenantID, periodID string) ([]Result, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.period_id, r.employee_id, e.first_name || ' ' || e.last_name,
           r.gross, r.isr, r.imss_employee, r.imss_employer, r.isn, r.net, r.breakdown_json, r.warnings_json
    FROM payroll_results r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.tenant_id = $1 AND r.period_id = $2
    ORDER BY e.last_name, e.first_name
  `, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.PeriodID, &r.EmployeeID, &r.EmployeeName,
			&r.Gross, &r.ISR, &r.IMSSEmployee, &r.IMSSEmployer, &r.ISN, &r.Net, &r.Breakdown, &r.Warnings); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FinalizePeriod flips reviewed to finalized and issues one payslip per result.
func (s *Store) FinalizePeriod(ctx context.Context, tenantID, periodID string) (int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE payroll_periods SET status = $1, finalized_at = now()
    WHERE tenant_id = $2 AND id = $3 AND status = $4
  `, PeriodStatusFinalized, tenantID, periodID, PeriodStatusReviewed)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrFinalizeInvalidState
	}

	tag, err = tx.Exec(ctx, `
    INSERT INTO payslips (tenant_id, period_id, employee_id, result_id, gross, deductions, net)
    SELECT tenant_id, period_id, employee_id, id, gross, isr + imss_employee, net
    FROM payroll_results
    WHERE tenant_id = $1 AND period_id = $2
    ON CONFLICT (period_id, employee_id) DO NOTHING
  `, tenantID, periodID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return employeeID, err
}

func (s *Store) CountPayslips(ctx context.Context, tenantID, employeeID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payslips WHERE tenant_id = $1 AND employee_id = $2", tenantID, employeeID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListPayslips(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT ps.id, ps.period_id, ps.employee_id, p.start_date, p.end_date, ps.gross, ps.deductions, ps.net, ps.created_at
    FROM payslips ps
    JOIN payroll_periods p ON p.id = ps.period_id
    WHERE ps.tenant_id = $1 AND ps.employee_id = $2
    ORDER BY p.start_date DESC
    LIMIT $3 OFFSET $4
  `, tenantID, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slips []Payslip
	for rows.Next() {
		var slip Payslip
		var start, end time.Time
		if err := rows.Scan(&slip.ID, &slip.PeriodID, &slip.EmployeeID, &start, &end, &slip.Gross, &slip.Deductions, &slip.Net, &slip.CreatedAt); err != nil {
			return nil, err
		}
		slip.StartDate = localdate.ToDateString(start)
		slip.EndDate = localdate.ToDateString(end)
		slips = append(slips, slip)
	}
	return slips, rows.Err()
}

func (s *Store) PayslipOwner(ctx context.Context, tenantID, payslipID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, "SELECT employee_id FROM payslips WHERE tenant_id = $1 AND id = $2", tenantID, payslipID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrPayslipNotFound
	}
	return employeeID, err
}
