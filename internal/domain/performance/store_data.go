package performance

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

const goalColumns = `
    g.id, g.employee_id, e.first_name || ' ' || e.last_name, g.title, COALESCE(g.description, ''),
    COALESCE(g.metric, ''), g.target_value::float8, g.current_value::float8, g.inverse,
    g.threshold::float8, g.stretch::float8, g.weight::float8, g.due_date, g.status, g.created_at, g.updated_at
`

func scanGoal(row pgx.Row) (Goal, error) {
	var g Goal
	var due *time.Time
	err := row.Scan(&g.ID, &g.EmployeeID, &g.EmployeeName, &g.Title, &g.Description, &g.Metric,
		&g.TargetValue, &g.CurrentValue, &g.Inverse, &g.Threshold, &g.Stretch, &g.Weight, &due,
		&g.Status, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Goal{}, ErrGoalNotFound
	}
	if err != nil {
		return Goal{}, err
	}
	if due != nil {
		g.DueDate = localdate.ToDateString(*due)
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, tenantID string, filter GoalFilter) ([]Goal, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+goalColumns+`
    FROM goals g
    JOIN employees e ON e.id = g.employee_id
    WHERE g.tenant_id = $1
      AND ($2::boolean
        OR ($3 <> '' AND g.employee_id::text = $3)
        OR ($4 <> '' AND e.manager_id::text = $4))
    ORDER BY g.due_date NULLS LAST, g.created_at
  `, tenantID, filter.All, filter.EmployeeID, filter.ManagerEmployeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var goals []Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (s *Store) GetGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	return scanGoal(s.DB.QueryRow(ctx, `
    SELECT `+goalColumns+`
    FROM goals g
    JOIN employees e ON e.id = g.employee_id
    WHERE g.tenant_id = $1 AND g.id = $2
  `, tenantID, goalID))
}

func (s *Store) CreateGoal(ctx context.Context, tenantID string, in GoalInput) (Goal, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO goals (tenant_id, employee_id, title, description, metric, target_value, current_value,
                       inverse, threshold, stretch, weight, due_date, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    RETURNING id
  `, tenantID, in.EmployeeID, in.Title, in.Description, in.Metric, in.TargetValue, in.CurrentValue,
		in.Inverse, in.Threshold, in.Stretch, in.Weight, in.DueDate, in.Status).Scan(&id)
	if err != nil {
		return Goal{}, err
	}
	return s.GetGoal(ctx, tenantID, id)
}

func (s *Store) UpdateGoal(ctx context.Context, tenantID, goalID string, in GoalInput) (Goal, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE goals SET
      title = $3, description = $4, metric = $5, target_value = $6, current_value = $7,
      inverse = $8, threshold = $9, stretch = $10, weight = $11, due_date = $12, status = $13,
      updated_at = now()
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, goalID, in.Title, in.Description, in.Metric, in.TargetValue, in.CurrentValue,
		in.Inverse, in.Threshold, in.Stretch, in.Weight, in.DueDate, in.Status)
	if err != nil {
		return Goal{}, err
	}
	if tag.RowsAffected() == 0 {
		return Goal{}, ErrGoalNotFound
	}
	return s.GetGoal(ctx, tenantID, goalID)
}

func (s *Store) DeleteGoal(ctx context.Context, tenantID, goalID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM goals WHERE tenant_id = $1 AND id = $2", tenantID, goalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

const cycleColumns = `
    id, name, start_date, end_date, self_review_deadline, manager_review_deadline,
    calibration_deadline, rating_scale, status, created_at
`

func scanCycle(row pgx.Row) (AppraisalCycle, error) {
	var c AppraisalCycle
	var start, end time.Time
	var self, manager, calibration *time.Time
	err := row.Scan(&c.ID, &c.Name, &start, &end, &self, &manager, &calibration, &c.RatingScale, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AppraisalCycle{}, ErrCycleNotFound
	}
	if err != nil {
		return AppraisalCycle{}, err
	}
	c.StartDate = localdate.ToDateString(start)
	c.EndDate = localdate.ToDateString(end)
	c.SelfReviewDeadline = optionalDate(self)
	c.ManagerReviewDeadline = optionalDate(manager)
	c.CalibrationDeadline = optionalDate(calibration)
	return c, nil
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return localdate.ToDateString(*t)
}

func (s *Store) ListCycles(ctx context.Context, tenantID string) ([]AppraisalCycle, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+cycleColumns+` FROM appraisal_cycles WHERE tenant_id = $1 ORDER BY start_date DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cycles []AppraisalCycle
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}
	return cycles, rows.Err()
}

func (s *Store) GetCycle(ctx context.Context, tenantID, cycleID string) (AppraisalCycle, error) {
	return scanCycle(s.DB.QueryRow(ctx, `SELECT `+cycleColumns+` FROM appraisal_cycles WHERE tenant_id = $1 AND id = $2`, tenantID, cycleID))
}

func (s *Store) CreateCycle(ctx context.Context, tenantID string, in CycleInput) (AppraisalCycle, error) {
	return scanCycle(s.DB.QueryRow(ctx, `
    INSERT INTO appraisal_cycles (tenant_id, name, start_date, end_date, self_review_deadline,
                                  manager_review_deadline, calibration_deadline, rating_scale)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING `+cycleColumns,
		tenantID, in.Name, in.StartDate, in.EndDate, in.SelfReviewDeadline, in.ManagerReviewDeadline,
		in.CalibrationDeadline, in.RatingScale))
}

func (s *Store) TransitionCycle(ctx context.Context, tenantID, cycleID, from, to string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE appraisal_cycles SET status = $4
    WHERE tenant_id = $1 AND id = $2 AND status = $3
  `, tenantID, cycleID, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SelfReviewsDue(ctx context.Context, tenantID string, from, to time.Time) ([]SelfReviewReminder, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.name, e.user_id::text, c.self_review_deadline
    FROM appraisal_cycles c
    JOIN employees e ON e.tenant_id = c.tenant_id
    WHERE c.tenant_id = $1
      AND c.status = 'active'
      AND c.self_review_deadline BETWEEN $2 AND $3
      AND e.status = 'active'
      AND e.user_id IS NOT NULL
  `, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SelfReviewReminder
	for rows.Next() {
		var r SelfReviewReminder
		if err := rows.Scan(&r.CycleID, &r.CycleName, &r.UserID, &r.Deadline); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
