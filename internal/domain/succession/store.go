package succession

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const planColumns = `
    p.id, p.position_title, p.incumbent_employee_id::text, p.criticality, COALESCE(p.notes, ''),
    (SELECT COUNT(1) FROM succession_candidates c WHERE c.plan_id = p.id), p.created_at
`

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.PositionTitle, &p.IncumbentEmployeeID, &p.Criticality, &p.Notes, &p.CandidateCount, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrPlanNotFound
	}
	return p, err
}

func (s *Store) ListPlans(ctx context.Context, tenantID string) ([]Plan, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+planColumns+` FROM succession_plans p WHERE p.tenant_id = $1 ORDER BY p.position_title`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPlan(ctx context.Context, tenantID, planID string) (Plan, error) {
	return scanPlan(s.DB.QueryRow(ctx, `SELECT `+planColumns+` FROM succession_plans p WHERE p.tenant_id = $1 AND p.id = $2`, tenantID, planID))
}

func (s *Store) CreatePlan(ctx context.Context, tenantID string, in PlanInput) (Plan, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO succession_plans (tenant_id, position_title, incumbent_employee_id, criticality, notes)
    VALUES ($1, $2, $3, $4, NULLIF($5, ''))
    RETURNING id
  `, tenantID, in.PositionTitle, in.IncumbentEmployeeID, in.Criticality, in.Notes).Scan(&id); err != nil {
		return Plan{}, err
	}
	return s.GetPlan(ctx, tenantID, id)
}

const candidateSelect = `
    SELECT c.id, c.plan_id, c.employee_id, e.first_name || ' ' || e.last_name, c.readiness, c.created_at
    FROM succession_candidates c
    JOIN employees e ON e.id = c.employee_id
`

func scanCandidate(row pgx.Row) (Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.PlanID, &c.EmployeeID, &c.EmployeeName, &c.Readiness, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, ErrCandidateNotFound
	}
	return c, err
}

func (s *Store) ListCandidates(ctx context.Context, tenantID, planID string) ([]Candidate, error) {
	rows, err := s.DB.Query(ctx, candidateSelect+`
    WHERE c.tenant_id = $1 AND c.plan_id = $2
    ORDER BY c.created_at
  `, tenantID, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCandidate(ctx context.Context, tenantID, candidateID string) (Candidate, error) {
	return scanCandidate(s.DB.QueryRow(ctx, candidateSelect+` WHERE c.tenant_id = $1 AND c.id = $2`, tenantID, candidateID))
}

func (s *Store) AddCandidate(ctx context.Context, tenantID, planID, employeeID, readiness string) (Candidate, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO succession_candidates (tenant_id, plan_id, employee_id, readiness)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, tenantID, planID, employeeID, readiness).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Candidate{}, ErrDuplicateCandidate
	}
	if err != nil {
		return Candidate{}, err
	}
	return s.GetCandidate(ctx, tenantID, id)
}

func (s *Store) ListAssessments(ctx context.Context, tenantID string, candidateIDs []string) ([]Assessment, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, candidate_id, readiness, score::float8, COALESCE(notes, ''), assessed_by::text, assessed_at
    FROM readiness_assessments
    WHERE tenant_id = $1 AND candidate_id::text = ANY($2)
    ORDER BY assessed_at
  `, tenantID, candidateIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assessment
	for rows.Next() {
		var a Assessment
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.Readiness, &a.Score, &a.Notes, &a.AssessedBy, &a.AssessedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AddAssessment(ctx context.Context, tenantID, candidateID string, in AssessmentInput) (Assessment, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Assessment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var assessedBy any
	if in.AssessedBy != "" {
		assessedBy = in.AssessedBy
	}
	var a Assessment
	if err := tx.QueryRow(ctx, `
    INSERT INTO readiness_assessments (tenant_id, candidate_id, readiness, score, notes, assessed_by)
    VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
    RETURNING id, candidate_id, readiness, score::float8, COALESCE(notes, ''), assessed_by::text, assessed_at
  `, tenantID, candidateID, in.Readiness, in.Score, in.Notes, assessedBy).Scan(
		&a.ID, &a.CandidateID, &a.Readiness, &a.Score, &a.Notes, &a.AssessedBy, &a.AssessedAt); err != nil {
		return Assessment{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE succession_candidates SET readiness = $3 WHERE tenant_id = $1 AND id = $2`, tenantID, candidateID, in.Readiness); err != nil {
		return Assessment{}, err
	}
	return a, tx.Commit(ctx)
}
