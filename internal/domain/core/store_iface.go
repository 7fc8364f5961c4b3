package core

import (
	"context"
)

type StoreAPI interface {
	ListGroups(ctx context.Context, tenantID string) ([]CompanyGroup, error)
	CreateGroup(ctx context.Context, tenantID string, group CompanyGroup) (CompanyGroup, error)
	ListCompanies(ctx context.Context, tenantID string) ([]Company, error)
	GetCompany(ctx context.Context, tenantID, companyID string) (Company, error)
	CreateCompany(ctx context.Context, tenantID string, company Company) (Company, error)
	ListDivisions(ctx context.Context, tenantID, companyID string) ([]Division, error)
	CreateDivision(ctx context.Context, tenantID string, division Division) (Division, error)

	CountEmployees(ctx context.Context, tenantID string, scope EmployeeScope) (int, error)
	ListEmployees(ctx context.Context, tenantID string, scope EmployeeScope, limit, offset int) ([]Employee, error)
	GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error)
	GetEmployeeByUserID(ctx context.Context, tenantID, userID string) (Employee, error)
	CreateEmployee(ctx context.Context, tenantID string, in EmployeeInput) (Employee, error)
	UpdateEmployee(ctx context.Context, tenantID, employeeID string, in EmployeeInput) (Employee, error)
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	IsManagerOf(ctx context.Context, tenantID, managerEmployeeID, employeeID string) (bool, error)
	ManagerUserID(ctx context.Context, tenantID, employeeID string) (string, error)
	InsertAccessLog(ctx context.Context, tenantID, actorID, employeeID, requestID string, fields []string) error

	ListModuleFlags(ctx context.Context, tenantID string) (map[string]ModuleFlag, error)
	SetModule(ctx context.Context, tenantID, module string, enabled bool) (ModuleFlag, error)
	ModuleEnabled(ctx context.Context, tenantID, module string) (bool, error)
}
