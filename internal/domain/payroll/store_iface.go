package payroll

import (
	"context"

	"hris/internal/domain/payroll/statutory"
)

type StoreAPI interface {
	CountPeriods(ctx context.Context, tenantID string) (int, error)
	ListPeriods(ctx context.Context, tenantID string, limit, offset int) ([]Period, error)
	GetPeriod(ctx context.Context, tenantID, periodID string) (Period, error)
	CreatePeriod(ctx context.Context, tenantID string, period NewPeriod, taxYear int) (Period, error)
	GetCompany(ctx context.Context, tenantID, companyID string) (Company, error)
	ListActiveEmployees(ctx context.Context, tenantID, companyID string) ([]EmployeePayrollData, error)
	SaveRun(ctx context.Context, tenantID, periodID string, results []ResultInput) error
	CountResults(ctx context.Context, tenantID, periodID string) (int, error)
	ListResults(ctx context.Context, tenantID, periodID string) ([]Result, error)
	FinalizePeriod(ctx context.Context, tenantID, periodID string) (int, error)
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	CountPayslips(ctx context.Context, tenantID, employeeID string) (int, error)
	ListPayslips(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]Payslip, error)
	PayslipOwner(ctx context.Context, tenantID, payslipID string) (string, error)
	PayslipPDFData(ctx context.Context, tenantID, payslipID string) (PayslipPDFData, error)
}

// TableStoreAPI persists statutory tables; it is also a statutory.Source.
type TableStoreAPI interface {
	statutory.Source
	UpsertTableSet(ctx context.Context, tables statutory.TableSet) error
	Years(ctx context.Context) ([]int, error)
}
