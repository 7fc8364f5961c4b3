package reports

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/feedback"
	"hris/internal/domain/leave"
	"hris/internal/domain/payroll"
	"hris/internal/domain/performance"
	"hris/internal/platform/localdate"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoEmployeeRecord
	}
	return employeeID, err
}

func (s *Store) LeaveTotals(ctx context.Context, tenantID, employeeID string) (LeaveTotals, error) {
	var totals LeaveTotals
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(balance - pending - used), 0)::float8, COALESCE(SUM(pending), 0)::float8
    FROM leave_balances
    WHERE tenant_id = $1 AND employee_id = $2
  `, tenantID, employeeID).Scan(&totals.Available, &totals.Pending)
	return totals, err
}

func (s *Store) Payslips(ctx context.Context, tenantID, employeeID string) (int, *PayslipSummary, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payslips WHERE tenant_id = $1 AND employee_id = $2", tenantID, employeeID).Scan(&count); err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var latest PayslipSummary
	var start, end time.Time
	err := s.DB.QueryRow(ctx, `
    SELECT ps.id, ps.period_id, pp.start_date, pp.end_date, ps.net::float8
    FROM payslips ps
    JOIN payroll_periods pp ON pp.id = ps.period_id
    WHERE ps.tenant_id = $1 AND ps.employee_id = $2
    ORDER BY pp.end_date DESC
    LIMIT 1
  `, tenantID, employeeID).Scan(&latest.ID, &latest.PeriodID, &start, &end, &latest.Net)
	if err != nil {
		return 0, nil, err
	}
	latest.StartDate = localdate.ToDateString(start)
	latest.EndDate = localdate.ToDateString(end)
	return count, &latest, nil
}

const goalColumns = `
    g.employee_id, e.first_name || ' ' || e.last_name, g.target_value::float8, g.current_value::float8,
    g.inverse, g.threshold::float8, g.stretch::float8, g.weight::float8, g.status
`

func (s *Store) queryGoals(ctx context.Context, sql string, args ...any) ([]performance.Goal, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []performance.Goal
	for rows.Next() {
		var g performance.Goal
		if err := rows.Scan(&g.EmployeeID, &g.EmployeeName, &g.TargetValue, &g.CurrentValue,
			&g.Inverse, &g.Threshold, &g.Stretch, &g.Weight, &g.Status); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) EmployeeGoals(ctx context.Context, tenantID, employeeID string) ([]performance.Goal, error) {
	return s.queryGoals(ctx, `
    SELECT `+goalColumns+`
    FROM goals g
    JOIN employees e ON e.id = g.employee_id
    WHERE g.tenant_id = $1 AND g.employee_id = $2
  `, tenantID, employeeID)
}

func (s *Store) TeamGoals(ctx context.Context, tenantID, managerEmployeeID string) ([]performance.Goal, error) {
	return s.queryGoals(ctx, `
    SELECT `+goalColumns+`
    FROM goals g
    JOIN employees e ON e.id = g.employee_id
    WHERE g.tenant_id = $1 AND e.manager_id = $2
  `, tenantID, managerEmployeeID)
}

func (s *Store) PendingFeedback(ctx context.Context, tenantID, employeeID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM feedback_requests r
    JOIN feedback_cycles c ON c.id = r.cycle_id
    WHERE r.tenant_id = $1 AND r.reviewer_employee_id = $2 AND r.status = $3 AND c.status = $4
  `, tenantID, employeeID, feedback.RequestStatusPending, feedback.CycleStatusActive).Scan(&count)
	return count, err
}

func (s *Store) TeamSize(ctx context.Context, tenantID, managerEmployeeID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE tenant_id = $1 AND manager_id = $2 AND status = 'active'", tenantID, managerEmployeeID).Scan(&count)
	return count, err
}

func (s *Store) PendingApprovals(ctx context.Context, tenantID, managerEmployeeID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_requests lr
    JOIN employees e ON e.id = lr.employee_id
    WHERE lr.tenant_id = $1 AND e.manager_id = $2 AND lr.status = $3
  `, tenantID, managerEmployeeID, leave.StatusPending).Scan(&count)
	return count, err
}

func (s *Store) HeadcountByCompany(ctx context.Context, tenantID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.code, COUNT(e.id)
    FROM companies c
    LEFT JOIN employees e ON e.company_id = c.id AND e.status = 'active'
    WHERE c.tenant_id = $1
    GROUP BY c.code
  `, tenantID)
	if err != nil {
		return nil, err
	}
	return countRows(rows)
}

func (s *Store) OpenCycles(ctx context.Context, tenantID string) (int, int, error) {
	var appraisal, fb int
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM appraisal_cycles WHERE tenant_id = $1 AND status = $2),
      (SELECT COUNT(1) FROM feedback_cycles WHERE tenant_id = $1 AND status = $3)
  `, tenantID, performance.CycleStatusActive, feedback.CycleStatusActive).Scan(&appraisal, &fb)
	return appraisal, fb, err
}

func (s *Store) PayrollPeriodsByStatus(ctx context.Context, tenantID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1)
    FROM payroll_periods
    WHERE tenant_id = $1
    GROUP BY status
  `, tenantID)
	if err != nil {
		return nil, err
	}
	counts, err := countRows(rows)
	if err != nil {
		return nil, err
	}
	for _, status := range []string{payroll.PeriodStatusDraft, payroll.PeriodStatusReviewed, payroll.PeriodStatusFinalized} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	return counts, nil
}

func (s *Store) PendingLeave(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests WHERE tenant_id = $1 AND status = $2", tenantID, leave.StatusPending).Scan(&count)
	return count, err
}

func countRows(rows pgx.Rows) (map[string]int, error) {
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[key] = count
	}
	return out, rows.Err()
}

func (s *Store) ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsQuery(tenantID, filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []JobRun
	for rows.Next() {
		var run JobRun
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &run.Details, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsQuery(tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+query+") job_runs", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildJobRunsQuery(tenantID string, filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE tenant_id = $1
  `
	args := []any{tenantID}
	add := func(clause string, value any) {
		args = append(args, value)
		query += " AND " + clause + " $" + strconv.Itoa(len(args))
	}
	if value := strings.TrimSpace(filter.JobType); value != "" {
		add("job_type =", value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		add("status =", value)
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		add("started_at >=", *filter.StartedFrom)
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		add("started_at <=", *filter.StartedTo)
	}
	return query, args
}
