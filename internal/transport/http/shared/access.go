package shared

import (
	"context"

	"hris/internal/domain/auth"
)

// EmployeeAccess answers record-level questions about who may act on whose data.
type EmployeeAccess interface {
	CanAccess(ctx context.Context, viewer auth.UserContext, employeeID string) (bool, error)
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
}
