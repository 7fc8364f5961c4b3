package reports

import (
	"context"

	"hris/internal/domain/performance"
)

type StoreAPI interface {
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	LeaveTotals(ctx context.Context, tenantID, employeeID string) (LeaveTotals, error)
	Payslips(ctx context.Context, tenantID, employeeID string) (int, *PayslipSummary, error)
	EmployeeGoals(ctx context.Context, tenantID, employeeID string) ([]performance.Goal, error)
	PendingFeedback(ctx context.Context, tenantID, employeeID string) (int, error)

	TeamSize(ctx context.Context, tenantID, managerEmployeeID string) (int, error)
	TeamGoals(ctx context.Context, tenantID, managerEmployeeID string) ([]performance.Goal, error)
	PendingApprovals(ctx context.Context, tenantID, managerEmployeeID string) (int, error)

	HeadcountByCompany(ctx context.Context, tenantID string) (map[string]int, error)
	OpenCycles(ctx context.Context, tenantID string) (appraisal, feedback int, err error)
	PayrollPeriodsByStatus(ctx context.Context, tenantID string) (map[string]int, error)
	PendingLeave(ctx context.Context, tenantID string) (int, error)

	CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error)
	ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error)
}
