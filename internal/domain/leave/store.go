package leave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/platform/localdate"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, code, name, is_paid, requires_document
    FROM leave_types
    WHERE tenant_id = $1
    ORDER BY name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.IsPaid, &t.RequiresDocument); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) GetType(ctx context.Context, tenantID, typeID string) (LeaveType, error) {
	var t LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, code, name, is_paid, requires_document
    FROM leave_types
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, typeID).Scan(&t.ID, &t.Code, &t.Name, &t.IsPaid, &t.RequiresDocument)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, ErrTypeNotFound
	}
	return t, err
}

func (s *Store) CreateType(ctx context.Context, tenantID string, in LeaveType) (LeaveType, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (tenant_id, code, name, is_paid, requires_document)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, tenantID, in.Code, in.Name, in.IsPaid, in.RequiresDocument).Scan(&in.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return LeaveType{}, ErrDuplicateType
	}
	return in, err
}

const balanceSelect = `
    SELECT b.id, b.employee_id, b.leave_type_id, lt.code, lt.name,
           b.balance::float8, b.pending::float8, b.used::float8, b.last_grant_year, b.updated_at
    FROM leave_balances b
    JOIN leave_types lt ON lt.id = b.leave_type_id
`

func scanBalance(row pgx.Row) (Balance, error) {
	var b Balance
	err := row.Scan(&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.LeaveTypeCode, &b.LeaveTypeName,
		&b.Balance, &b.Pending, &b.Used, &b.LastGrantYear, &b.UpdatedAt)
	b.Available = b.Balance - b.Pending - b.Used
	return b, err
}

func (s *Store) ListBalances(ctx context.Context, tenantID, employeeID string) ([]Balance, error) {
	rows, err := s.DB.Query(ctx, balanceSelect+`
    WHERE b.tenant_id = $1 AND b.employee_id = $2
    ORDER BY lt.name
  `, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBalance(ctx context.Context, tenantID, employeeID, typeID string) (*Balance, error) {
	b, err := scanBalance(s.DB.QueryRow(ctx, balanceSelect+`
    WHERE b.tenant_id = $1 AND b.employee_id = $2 AND b.leave_type_id = $3
  `, tenantID, employeeID, typeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) EmployeeInfo(ctx context.Context, tenantID, employeeID string) (EmployeeInfo, error) {
	var info EmployeeInfo
	var userID, managerID, managerUserID *string
	err := s.DB.QueryRow(ctx, `
    SELECT e.id, e.user_id::text, e.company_id, e.first_name || ' ' || e.last_name,
           e.date_of_birth, e.hire_date, e.qualifications, e.manager_id::text, m.user_id::text
    FROM employees e
    LEFT JOIN employees m ON m.id = e.manager_id
    WHERE e.tenant_id = $1 AND e.id = $2
  `, tenantID, employeeID).Scan(&info.ID, &userID, &info.CompanyID, &info.Name,
		&info.DateOfBirth, &info.HireDate, &info.Qualifications, &managerID, &managerUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeInfo{}, ErrEmployeeNotFound
	}
	if err != nil {
		return EmployeeInfo{}, err
	}
	if userID != nil {
		info.UserID = *userID
	}
	if managerID != nil {
		info.ManagerID = *managerID
	}
	if managerUserID != nil {
		info.ManagerUserID = *managerUserID
	}
	return info, nil
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

const requestScope = `
    r.tenant_id = $1
    AND ($2 = '' OR r.status = $2)
    AND ($3::boolean
      OR ($4 <> '' AND r.employee_id IN (SELECT id FROM employees WHERE tenant_id = $1 AND manager_id::text = $4))
      OR ($5 <> '' AND r.employee_id::text = $5))
`

const requestColumns = `
    r.id, r.employee_id, r.leave_type_id, r.start_date, r.end_date, r.start_half, r.end_half,
    r.days::float8, COALESCE(r.reason, ''), r.documents, r.status, r.approved_by::text, r.decided_at, r.created_at
`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	var start, end time.Time
	err := row.Scan(&r.ID, &r.EmployeeID, &r.LeaveTypeID, &start, &end, &r.StartHalf, &r.EndHalf,
		&r.Days, &r.Reason, &r.Documents, &r.Status, &r.ApprovedBy, &r.DecidedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	if err != nil {
		return Request{}, err
	}
	r.StartDate = localdate.ToDateString(start)
	r.EndDate = localdate.ToDateString(end)
	if r.Documents == nil {
		r.Documents = []string{}
	}
	return r, nil
}

func (s *Store) CountRequests(ctx context.Context, tenantID string, filter RequestFilter) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM leave_requests r WHERE `+requestScope,
		tenantID, filter.Status, filter.All, filter.ManagerEmployeeID, filter.SelfEmployeeID).Scan(&total)
	return total, err
}

func (s *Store) ListRequests(ctx context.Context, tenantID string, filter RequestFilter, limit, offset int) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests r
    WHERE `+requestScope+`
    ORDER BY r.created_at DESC
    LIMIT $6 OFFSET $7
  `, tenantID, filter.Status, filter.All, filter.ManagerEmployeeID, filter.SelfEmployeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, tenantID, requestID string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM leave_requests r WHERE r.tenant_id = $1 AND r.id = $2`, tenantID, requestID))
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Warn("leave rollback failed", "err", err)
	}
}

func (s *Store) CreateRequest(ctx context.Context, tenantID string, in RequestInput, days float64) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer rollback(ctx, tx)

	documents := in.Documents
	if documents == nil {
		documents = []string{}
	}
	req, err := scanRequest(tx.QueryRow(ctx, `
    INSERT INTO leave_requests AS r (tenant_id, employee_id, leave_type_id, start_date, end_date,
                                     start_half, end_half, days, reason, documents, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
    RETURNING `+requestColumns,
		tenantID, in.EmployeeID, in.LeaveTypeID, in.StartDate, in.EndDate,
		in.StartHalf, in.EndHalf, days, in.Reason, documents, StatusPending))
	if err != nil {
		return Request{}, err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO leave_balances (tenant_id, employee_id, leave_type_id, balance, pending, used)
    VALUES ($1, $2, $3, 0, $4, 0)
    ON CONFLICT (tenant_id, employee_id, leave_type_id)
    DO UPDATE SET pending = leave_balances.pending + EXCLUDED.pending, updated_at = now()
  `, tenantID, in.EmployeeID, in.LeaveTypeID, days); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Store) DecideRequest(ctx context.Context, tenantID, requestID, status, actorUserID string) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer rollback(ctx, tx)

	var actor any
	if actorUserID != "" {
		actor = actorUserID
	}
	req, err := scanRequest(tx.QueryRow(ctx, `
    UPDATE leave_requests AS r
    SET status = $3, approved_by = $4, decided_at = now()
    WHERE r.tenant_id = $1 AND r.id = $2 AND r.status = 'pending'
    RETURNING `+requestColumns,
		tenantID, requestID, status, actor))
	if errors.Is(err, ErrRequestNotFound) {
		return Request{}, ErrInvalidState
	}
	if err != nil {
		return Request{}, err
	}

	used := 0.0
	if status == StatusApproved {
		used = req.Days
	}
	if _, err := tx.Exec(ctx, `
    UPDATE leave_balances
    SET pending = GREATEST(pending - $4, 0), used = used + $5, updated_at = now()
    WHERE tenant_id = $1 AND employee_id = $2 AND leave_type_id = $3
  `, tenantID, req.EmployeeID, req.LeaveTypeID, req.Days, used); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Store) GrantCandidates(ctx context.Context, tenantID, typeCode string) ([]GrantCandidate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.hire_date, b.last_grant_year
    FROM employees e
    JOIN leave_types lt ON lt.tenant_id = e.tenant_id AND lt.code = $2
    LEFT JOIN leave_balances b ON b.employee_id = e.id AND b.leave_type_id = lt.id
    WHERE e.tenant_id = $1 AND e.status = 'active'
  `, tenantID, typeCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GrantCandidate
	for rows.Next() {
		var c GrantCandidate
		if err := rows.Scan(&c.EmployeeID, &c.HireDate, &c.LastGrantYear); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ApplyGrant(ctx context.Context, tenantID, employeeID, typeCode string, days float64, grantYear int) error {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (tenant_id, employee_id, leave_type_id, balance, pending, used, last_grant_year)
    SELECT $1, $2, lt.id, $4, 0, 0, $5
    FROM leave_types lt
    WHERE lt.tenant_id = $1 AND lt.code = $3
    ON CONFLICT (tenant_id, employee_id, leave_type_id) DO UPDATE
    SET balance = leave_balances.balance + EXCLUDED.balance,
        last_grant_year = EXCLUDED.last_grant_year,
        updated_at = now()
    WHERE leave_balances.last_grant_year IS NULL OR leave_balances.last_grant_year < EXCLUDED.last_grant_year
  `, tenantID, employeeID, typeCode, days, grantYear)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		slog.Debug("vacation grant already applied", "employeeId", employeeID, "year", grantYear)
	}
	return nil
}
