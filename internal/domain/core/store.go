package core

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "hris/internal/platform/crypto"
	"hris/internal/platform/localdate"
)

// FieldSealer encrypts sensitive employee columns at rest.
type FieldSealer interface {
	SealString(value string) (string, error)
	OpenString(value string) (string, error)
}

// DBTX is satisfied by both the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	DB     *pgxpool.Pool
	Crypto FieldSealer
}

func NewStore(db *pgxpool.Pool, crypto FieldSealer) *Store {
	return &Store{DB: db, Crypto: crypto}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func (s *Store) ListGroups(ctx context.Context, tenantID string) ([]CompanyGroup, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, code, name, created_at
    FROM company_groups
    WHERE tenant_id = $1
    ORDER BY name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CompanyGroup
	for rows.Next() {
		var g CompanyGroup
		if err := rows.Scan(&g.ID, &g.Code, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) CreateGroup(ctx context.Context, tenantID string, group CompanyGroup) (CompanyGroup, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO company_groups (tenant_id, code, name)
    VALUES ($1, $2, $3)
    RETURNING id, created_at
  `, tenantID, group.Code, group.Name).Scan(&group.ID, &group.CreatedAt)
	if isUniqueViolation(err) {
		return CompanyGroup{}, ErrDuplicateCode
	}
	return group, err
}

const companyColumns = `id, COALESCE(group_id::text, ''), code, name, COALESCE(rfc, ''), state_code, risk_class, created_at`

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.GroupID, &c.Code, &c.Name, &c.RFC, &c.StateCode, &c.RiskClass, &c.CreatedAt)
	return c, err
}

func (s *Store) ListCompanies(ctx context.Context, tenantID string) ([]Company, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+companyColumns+` FROM companies WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCompany(ctx context.Context, tenantID, companyID string) (Company, error) {
	c, err := scanCompany(s.DB.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE tenant_id = $1 AND id = $2`, tenantID, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	return c, err
}

func (s *Store) CreateCompany(ctx context.Context, tenantID string, company Company) (Company, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO companies (tenant_id, group_id, code, name, rfc, state_code, risk_class)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id, created_at
  `, tenantID, nullIfEmpty(company.GroupID), company.Code, company.Name, nullIfEmpty(company.RFC),
		company.StateCode, company.RiskClass).Scan(&company.ID, &company.CreatedAt)
	if isUniqueViolation(err) {
		return Company{}, ErrDuplicateCode
	}
	return company, err
}

func (s *Store) ListDivisions(ctx context.Context, tenantID, companyID string) ([]Division, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, code, name, created_at
    FROM divisions
    WHERE tenant_id = $1 AND ($2 = '' OR company_id::text = $2)
    ORDER BY name
  `, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Division
	for rows.Next() {
		var d Division
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Code, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CreateDivision(ctx context.Context, tenantID string, division Division) (Division, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO divisions (tenant_id, company_id, code, name)
    VALUES ($1, $2, $3, $4)
    RETURNING id, created_at
  `, tenantID, division.CompanyID, division.Code, division.Name).Scan(&division.ID, &division.CreatedAt)
	if isUniqueViolation(err) {
		return Division{}, ErrDuplicateCode
	}
	return division, err
}

const employeeColumns = `
    id, COALESCE(user_id::text, ''), company_id, COALESCE(division_id::text, ''),
    COALESCE(employee_number, ''), first_name, last_name, email, COALESCE(job_title, ''),
    COALESCE(manager_id::text, ''), hire_date, date_of_birth,
    COALESCE(curp_enc, curp, ''), COALESCE(rfc_enc, rfc, ''), COALESCE(nss_enc, nss, ''),
    COALESCE(daily_salary_enc, ''), daily_salary::float8, variable_daily_income::float8,
    pay_frequency, qualifications, status, created_at, updated_at
`

func (s *Store) scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var hire time.Time
	var birth *time.Time
	var curp, rfc, nss, salarySealed string
	var salaryPlain *float64
	var variable float64
	err := row.Scan(&emp.ID, &emp.UserID, &emp.CompanyID, &emp.DivisionID, &emp.EmployeeNumber,
		&emp.FirstName, &emp.LastName, &emp.Email, &emp.JobTitle, &emp.ManagerID, &hire, &birth,
		&curp, &rfc, &nss, &salarySealed, &salaryPlain, &variable,
		&emp.PayFrequency, &emp.Qualifications, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	emp.HireDate = localdate.ToDateString(hire)
	if birth != nil {
		emp.DateOfBirth = localdate.ToDateString(*birth)
	}
	if emp.CURP, err = s.open(curp); err != nil {
		return Employee{}, err
	}
	if emp.RFC, err = s.open(rfc); err != nil {
		return Employee{}, err
	}
	if emp.NSS, err = s.open(nss); err != nil {
		return Employee{}, err
	}
	emp.DailySalary = salaryPlain
	if salarySealed != "" {
		plain, err := s.open(salarySealed)
		if err != nil {
			return Employee{}, err
		}
		parsed, err := strconv.ParseFloat(plain, 64)
		if err != nil {
			return Employee{}, err
		}
		emp.DailySalary = &parsed
	}
	emp.VariableDailyIncome = &variable
	if emp.Qualifications == nil {
		emp.Qualifications = []string{}
	}
	return emp, nil
}

func (s *Store) open(value string) (string, error) {
	if s.Crypto == nil || value == "" {
		return value, nil
	}
	return s.Crypto.OpenString(value)
}

// seal returns (plain, sealed) column values; exactly one is set when value is non-empty.
func (s *Store) seal(value string) (any, any, error) {
	if value == "" {
		return nil, nil, nil
	}
	if s.Crypto == nil {
		return value, nil, nil
	}
	sealed, err := s.Crypto.SealString(value)
	if err != nil {
		return nil, nil, err
	}
	if cryptoutil.IsSealed(sealed) {
		return nil, sealed, nil
	}
	return value, nil, nil
}

const scopeFilter = `
    tenant_id = $1
    AND ($2::boolean
      OR ($3 <> '' AND manager_id::text = $3)
      OR ($4 <> '' AND id::text = $4))
`

func (s *Store) CountEmployees(ctx context.Context, tenantID string, scope EmployeeScope) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM employees WHERE `+scopeFilter,
		tenantID, scope.All, scope.ManagerEmployeeID, scope.SelfEmployeeID).Scan(&total)
	return total, err
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string, scope EmployeeScope, limit, offset int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE `+scopeFilter+`
    ORDER BY last_name, first_name
    LIMIT $5 OFFSET $6
  `, tenantID, scope.All, scope.ManagerEmployeeID, scope.SelfEmployeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	return s.scanEmployee(s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE tenant_id = $1 AND id = $2`, tenantID, employeeID))
}

func (s *Store) GetEmployeeByUserID(ctx context.Context, tenantID, userID string) (Employee, error) {
	return s.scanEmployee(s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID))
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, in EmployeeInput) (Employee, error) {
	id, err := s.InsertEmployee(ctx, s.DB, tenantID, in)
	if err != nil {
		return Employee{}, err
	}
	return s.GetEmployee(ctx, tenantID, id)
}

// InsertEmployee writes a new employee through q so bulk import can run it inside its transaction.
func (s *Store) InsertEmployee(ctx context.Context, q DBTX, tenantID string, in EmployeeInput) (string, error) {
	cols, err := s.sensitiveColumns(in)
	if err != nil {
		return "", err
	}
	var id string
	err = q.QueryRow(ctx, `
    INSERT INTO employees (
      tenant_id, user_id, company_id, division_id, employee_number, first_name, last_name, email,
      job_title, manager_id, hire_date, date_of_birth,
      curp, curp_enc, rfc, rfc_enc, nss, nss_enc, daily_salary, daily_salary_enc,
      variable_daily_income, pay_frequency, qualifications, status
    )
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
    RETURNING id
  `, tenantID, nullIfEmpty(in.UserID), in.CompanyID, nullIfEmpty(in.DivisionID), nullIfEmpty(in.EmployeeNumber),
		in.FirstName, in.LastName, in.Email, nullIfEmpty(in.JobTitle), nullIfEmpty(in.ManagerID), in.HireDate, in.DateOfBirth,
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6], cols[7],
		in.VariableDailyIncome, in.PayFrequency, qualificationsOrEmpty(in.Qualifications), in.Status).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicateEmail
	}
	return id, err
}

func (s *Store) UpdateEmployee(ctx context.Context, tenantID, employeeID string, in EmployeeInput) (Employee, error) {
	cols, err := s.sensitiveColumns(in)
	if err != nil {
		return Employee{}, err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET
      company_id = $3, division_id = $4, employee_number = $5, first_name = $6, last_name = $7, email = $8,
      job_title = $9, manager_id = $10, hire_date = $11, date_of_birth = $12,
      curp = $13, curp_enc = $14, rfc = $15, rfc_enc = $16, nss = $17, nss_enc = $18,
      daily_salary = $19, daily_salary_enc = $20, variable_daily_income = $21, pay_frequency = $22,
      qualifications = $23, status = $24, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID, in.CompanyID, nullIfEmpty(in.DivisionID), nullIfEmpty(in.EmployeeNumber),
		in.FirstName, in.LastName, in.Email, nullIfEmpty(in.JobTitle), nullIfEmpty(in.ManagerID), in.HireDate, in.DateOfBirth,
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6], cols[7],
		in.VariableDailyIncome, in.PayFrequency, qualificationsOrEmpty(in.Qualifications), in.Status)
	if isUniqueViolation(err) {
		return Employee{}, ErrDuplicateEmail
	}
	if err != nil {
		return Employee{}, err
	}
	if tag.RowsAffected() == 0 {
		return Employee{}, ErrEmployeeNotFound
	}
	return s.GetEmployee(ctx, tenantID, employeeID)
}

func (s *Store) sensitiveColumns(in EmployeeInput) ([8]any, error) {
	var cols [8]any
	salary := ""
	if in.DailySalary > 0 {
		salary = strconv.FormatFloat(in.DailySalary, 'f', 2, 64)
	}
	for i, value := range []string{NormalizeID(in.CURP), NormalizeID(in.RFC), in.NSS, salary} {
		plain, sealed, err := s.seal(value)
		if err != nil {
			return cols, err
		}
		cols[i*2], cols[i*2+1] = plain, sealed
	}
	return cols, nil
}

func qualificationsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *Store) IsManagerOf(ctx context.Context, tenantID, managerEmployeeID, employeeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM employees
    WHERE tenant_id = $1 AND id = $2 AND manager_id = $3
  `, tenantID, employeeID, managerEmployeeID).Scan(&count)
	return count > 0, err
}

func (s *Store) ManagerUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(m.user_id::text, '')
    FROM employees e
    JOIN employees m ON m.id = e.manager_id
    WHERE e.tenant_id = $1 AND e.id = $2
  `, tenantID, employeeID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return userID, err
}

func (s *Store) InsertAccessLog(ctx context.Context, tenantID, actorID, employeeID, requestID string, fields []string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO access_logs (tenant_id, actor_user_id, employee_id, fields, request_id)
    VALUES ($1, $2, $3, $4, $5)
  `, tenantID, nullIfEmpty(actorID), employeeID, fields, requestID)
	return err
}

func (s *Store) ListModuleFlags(ctx context.Context, tenantID string) (map[string]ModuleFlag, error) {
	rows, err := s.DB.Query(ctx, "SELECT module, enabled, updated_at FROM tenant_modules WHERE tenant_id = $1", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]ModuleFlag{}
	for rows.Next() {
		var flag ModuleFlag
		var updated time.Time
		if err := rows.Scan(&flag.Module, &flag.Enabled, &updated); err != nil {
			return nil, err
		}
		flag.UpdatedAt = &updated
		out[flag.Module] = flag
	}
	return out, rows.Err()
}

func (s *Store) SetModule(ctx context.Context, tenantID, module string, enabled bool) (ModuleFlag, error) {
	flag := ModuleFlag{Module: module, Enabled: enabled}
	var updated time.Time
	err := s.DB.QueryRow(ctx, `
    INSERT INTO tenant_modules (tenant_id, module, enabled, updated_at)
    VALUES ($1, $2, $3, now())
    ON CONFLICT (tenant_id, module) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = now()
    RETURNING updated_at
  `, tenantID, module, enabled).Scan(&updated)
	flag.UpdatedAt = &updated
	return flag, err
}

func (s *Store) ModuleEnabled(ctx context.Context, tenantID, module string) (bool, error) {
	var enabled bool
	err := s.DB.QueryRow(ctx, "SELECT enabled FROM tenant_modules WHERE tenant_id = $1 AND module = $2", tenantID, module).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	return enabled, err
}
