package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/domain/leave"
	"hris/internal/platform/config"
)

type seedLeaveType struct {
	code             string
	name             string
	paid             bool
	requiresDocument bool
}

var defaultLeaveTypes = []seedLeaveType{
	{code: leave.VacationTypeCode, name: "Vacaciones", paid: true},
	{code: "INC", name: "Incapacidad", paid: true, requiresDocument: true},
	{code: "PCG", name: "Permiso con goce", paid: true},
	{code: "PSG", name: "Permiso sin goce", paid: false},
}

// Seed makes the configured tenant usable: permissions, roles, the admin
// user, module flags and the default leave types. Every step is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) (string, error) {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return "", fmt.Errorf("seed tenant: %w", err)
	}
	if err := ensurePermissions(ctx, pool); err != nil {
		return "", fmt.Errorf("seed permissions: %w", err)
	}
	roleIDs, err := ensureRoles(ctx, pool, tenantID)
	if err != nil {
		return "", fmt.Errorf("seed roles: %w", err)
	}
	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return "", fmt.Errorf("seed role permissions: %w", err)
	}
	if err := ensureAdminUser(ctx, pool, tenantID, roleIDs[auth.RoleAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return "", fmt.Errorf("seed admin: %w", err)
	}
	if err := ensureModules(ctx, pool, tenantID); err != nil {
		return "", fmt.Errorf("seed modules: %w", err)
	}
	if err := ensureLeaveTypes(ctx, pool, tenantID); err != nil {
		return "", fmt.Errorf("seed leave types: %w", err)
	}
	return tenantID, nil
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, `
    INSERT INTO tenants (name) VALUES ($1)
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, name).Scan(&id)
	return id, err
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	batch := &pgx.Batch{}
	for _, perm := range auth.DefaultPermissions {
		batch.Queue("INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm)
	}
	return pool.SendBatch(ctx, batch).Close()
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, tenantID string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := pool.QueryRow(ctx, `
      INSERT INTO roles (tenant_id, name) VALUES ($1, $2)
      ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    `, tenantID, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	permMap := map[string]string{}
	rows, err := pool.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return err
	}
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			rows.Close()
			return err
		}
		permMap[key] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for roleName, perms := range auth.RolePermissions {
		for _, permKey := range perms {
			permID, ok := permMap[permKey]
			if !ok {
				return errors.New("permission not found: " + permKey)
			}
			batch.Queue("INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleIDs[roleName], permID)
		}
	}
	return pool.SendBatch(ctx, batch).Close()
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, roleID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND email = $2", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, "INSERT INTO users (tenant_id, email, password_hash, role_id) VALUES ($1, $2, $3, $4)", tenantID, email, hash, roleID)
	return err
}

func ensureModules(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	batch := &pgx.Batch{}
	for _, module := range core.Modules {
		batch.Queue("INSERT INTO tenant_modules (tenant_id, module, enabled) VALUES ($1, $2, true) ON CONFLICT DO NOTHING", tenantID, module)
	}
	return pool.SendBatch(ctx, batch).Close()
}

func ensureLeaveTypes(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	batch := &pgx.Batch{}
	for _, lt := range defaultLeaveTypes {
		batch.Queue(`
      INSERT INTO leave_types (tenant_id, code, name, is_paid, requires_document)
      VALUES ($1, $2, $3, $4, $5)
      ON CONFLICT (tenant_id, code) DO NOTHING
    `, tenantID, lt.code, lt.name, lt.paid, lt.requiresDocument)
	}
	return pool.SendBatch(ctx, batch).Close()
}
