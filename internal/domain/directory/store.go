package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/core"
)

// Store writes users and reuses the core store for employee rows so sensitive
// columns are sealed the same way as single-employee creation.
type Store struct {
	DB        *pgxpool.Pool
	Employees *core.Store
}

func NewStore(db *pgxpool.Pool, employees *core.Store) *Store {
	return &Store{DB: db, Employees: employees}
}

func (s *Store) ListCompanies(ctx context.Context, tenantID string) ([]core.Company, error) {
	return s.Employees.ListCompanies(ctx, tenantID)
}

func (s *Store) ListGroups(ctx context.Context, tenantID string) ([]core.CompanyGroup, error) {
	return s.Employees.ListGroups(ctx, tenantID)
}

func (s *Store) ListDivisions(ctx context.Context, tenantID string) ([]core.Division, error) {
	return s.Employees.ListDivisions(ctx, tenantID, "")
}

func (s *Store) RoleIDs(ctx context.Context, tenantID string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name
    FROM roles
    WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[strings.ToLower(name)] = id
	}
	return out, rows.Err()
}

func (s *Store) UserEmails(ctx context.Context, tenantID string) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT lower(email)
    FROM users
    WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out[email] = true
	}
	return out, rows.Err()
}

func (s *Store) EmployeeEmails(ctx context.Context, tenantID string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT lower(email), id
    FROM employees
    WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var email, id string
		if err := rows.Scan(&email, &id); err != nil {
			return nil, err
		}
		out[email] = id
	}
	return out, rows.Err()
}

func (s *Store) CreateUserWithEmployee(ctx context.Context, tenantID string, user NewUser, employee core.EmployeeInput) (string, string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID string
	err = tx.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role_id, must_change_password)
    VALUES ($1, $2, $3, $4, true)
    RETURNING id
  `, tenantID, user.Email, user.PasswordHash, user.RoleID).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", "", ErrDuplicateUser
		}
		return "", "", err
	}

	employee.UserID = userID
	employeeID, err := s.Employees.InsertEmployee(ctx, tx, tenantID, employee)
	if err != nil {
		return "", "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", "", err
	}
	return userID, employeeID, nil
}
