package directory

import (
	"context"

	"hris/internal/domain/core"
)

type StoreAPI interface {
	ListCompanies(ctx context.Context, tenantID string) ([]core.Company, error)
	ListGroups(ctx context.Context, tenantID string) ([]core.CompanyGroup, error)
	ListDivisions(ctx context.Context, tenantID string) ([]core.Division, error)
	RoleIDs(ctx context.Context, tenantID string) (map[string]string, error)
	UserEmails(ctx context.Context, tenantID string) (map[string]bool, error)
	EmployeeEmails(ctx context.Context, tenantID string) (map[string]string, error)
	CreateUserWithEmployee(ctx context.Context, tenantID string, user NewUser, employee core.EmployeeInput) (userID, employeeID string, err error)
}
