package feedback

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

const cycleColumns = `
    id, name, start_date, end_date, nomination_deadline, response_deadline,
    rating_scale, anonymity_threshold, status, created_at
`

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	var start, end time.Time
	var nomination, response *time.Time
	err := row.Scan(&c.ID, &c.Name, &start, &end, &nomination, &response, &c.RatingScale, &c.AnonymityThreshold, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cycle{}, ErrCycleNotFound
	}
	if err != nil {
		return Cycle{}, err
	}
	c.StartDate = localdate.ToDateString(start)
	c.EndDate = localdate.ToDateString(end)
	if nomination != nil {
		c.NominationDeadline = localdate.ToDateString(*nomination)
	}
	if response != nil {
		c.ResponseDeadline = localdate.ToDateString(*response)
	}
	return c, nil
}

func (s *Store) ListCycles(ctx context.Context, tenantID string) ([]Cycle, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+cycleColumns+` FROM feedback_cycles WHERE tenant_id = $1 ORDER BY start_date DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cycles []Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

func (s *Store) GetCycle(ctx context.Context, tenantID, cycleID string) (Cycle, error) {
	return scanCycle(s.DB.QueryRow(ctx, `SELECT `+cycleColumns+` FROM feedback_cycles WHERE tenant_id = $1 AND id = $2`, tenantID, cycleID))
}

func (s *Store) CreateCycle(ctx context.Context, tenantID string, in CycleInput) (Cycle, error) {
	return scanCycle(s.DB.QueryRow(ctx, `
    INSERT INTO feedback_cycles (tenant_id, name, start_date, end_date, nomination_deadline,
                                 response_deadline, rating_scale, anonymity_threshold)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING `+cycleColumns,
		tenantID, in.Name, in.StartDate, in.EndDate, in.NominationDeadline, in.ResponseDeadline, in.RatingScale, in.AnonymityThreshold))
}

func (s *Store) TransitionCycle(ctx context.Context, tenantID, cycleID, from, to string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE feedback_cycles SET status = $4
    WHERE tenant_id = $1 AND id = $2 AND status = $3
  `, tenantID, cycleID, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CreateRequests inserts every assignment in one batch; duplicates are ignored.
func (s *Store) CreateRequests(ctx context.Context, tenantID, cycleID, subjectEmployeeID string, assignments []Assignment) (int, error) {
	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(`
      INSERT INTO feedback_requests (tenant_id, cycle_id, subject_employee_id, reviewer_employee_id, relationship)
      VALUES ($1, $2, $3, $4, $5)
      ON CONFLICT (cycle_id, subject_employee_id, reviewer_employee_id, relationship) DO NOTHING
    `, tenantID, cycleID, subjectEmployeeID, a.ReviewerEmployeeID, a.Relationship)
	}
	results := s.DB.SendBatch(ctx, batch)
	defer results.Close()
	created := 0
	for range assignments {
		tag, err := results.Exec()
		if err != nil {
			return created, err
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

const requestColumns = `
    r.id, r.cycle_id, c.name, c.rating_scale, c.response_deadline, c.status,
    r.subject_employee_id, e.first_name || ' ' || e.last_name, r.reviewer_employee_id,
    r.relationship, r.status, r.rating::float8, COALESCE(r.comments, ''), r.submitted_at
`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	var deadline *time.Time
	err := row.Scan(&r.ID, &r.CycleID, &r.CycleName, &r.RatingScale, &deadline, &r.CycleStatus,
		&r.SubjectEmployeeID, &r.SubjectName, &r.ReviewerEmployeeID,
		&r.Relationship, &r.Status, &r.Rating, &r.Comments, &r.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	if err != nil {
		return Request{}, err
	}
	if deadline != nil {
		r.ResponseDeadline = localdate.ToDateString(*deadline)
	}
	return r, nil
}

func (s *Store) ListPendingRequests(ctx context.Context, tenantID, reviewerEmployeeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM feedback_requests r
    JOIN feedback_cycles c ON c.id = r.cycle_id
    JOIN employees e ON e.id = r.subject_employee_id
    WHERE r.tenant_id = $1 AND r.reviewer_employee_id = $2 AND r.status = 'pending' AND c.status = 'active'
    ORDER BY c.response_deadline NULLS LAST, r.created_at
  `, tenantID, reviewerEmployeeID)
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
	return scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM feedback_requests r
    JOIN feedback_cycles c ON c.id = r.cycle_id
    JOIN employees e ON e.id = r.subject_employee_id
    WHERE r.tenant_id = $1 AND r.id = $2
  `, tenantID, requestID))
}

func (s *Store) SubmitRequest(ctx context.Context, tenantID, requestID string, rating float64, comments string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE feedback_requests
    SET status = 'submitted', rating = $3, comments = $4, submitted_at = now()
    WHERE tenant_id = $1 AND id = $2 AND status = 'pending'
  `, tenantID, requestID, rating, comments)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListResponses(ctx context.Context, tenantID, cycleID, subjectEmployeeID string) ([]Response, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT reviewer_employee_id, relationship, rating::float8, COALESCE(comments, '')
    FROM feedback_requests
    WHERE tenant_id = $1 AND cycle_id = $2 AND subject_employee_id = $3 AND status = 'submitted'
  `, tenantID, cycleID, subjectEmployeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Response
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ReviewerEmployeeID, &r.Relationship, &r.Rating, &r.Comments); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) RequestsDue(ctx context.Context, tenantID string, from, to time.Time) ([]Reminder, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, c.name, rv.user_id::text, sb.first_name || ' ' || sb.last_name, c.response_deadline
    FROM feedback_requests r
    JOIN feedback_cycles c ON c.id = r.cycle_id
    JOIN employees rv ON rv.id = r.reviewer_employee_id
    JOIN employees sb ON sb.id = r.subject_employee_id
    WHERE r.tenant_id = $1
      AND r.status = 'pending'
      AND c.status = 'active'
      AND c.response_deadline BETWEEN $2 AND $3
      AND rv.user_id IS NOT NULL
  `, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.RequestID, &r.CycleName, &r.ReviewerUserID, &r.SubjectName, &r.Deadline); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
