package leave

import "context"

type StoreAPI interface {
	ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error)
	GetType(ctx context.Context, tenantID, typeID string) (LeaveType, error)
	CreateType(ctx context.Context, tenantID string, in LeaveType) (LeaveType, error)
	ListBalances(ctx context.Context, tenantID, employeeID string) ([]Balance, error)
	GetBalance(ctx context.Context, tenantID, employeeID, typeID string) (*Balance, error)
	EmployeeInfo(ctx context.Context, tenantID, employeeID string) (EmployeeInfo, error)
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	CountRequests(ctx context.Context, tenantID string, filter RequestFilter) (int, error)
	ListRequests(ctx context.Context, tenantID string, filter RequestFilter, limit, offset int) ([]Request, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (Request, error)
	// CreateRequest inserts the request and reserves its days as pending in one transaction.
	CreateRequest(ctx context.Context, tenantID string, in RequestInput, days float64) (Request, error)
	// DecideRequest moves a pending request to status and settles the reserved days.
	DecideRequest(ctx context.Context, tenantID, requestID, status, actorUserID string) (Request, error)
	GrantCandidates(ctx context.Context, tenantID, typeCode string) ([]GrantCandidate, error)
	ApplyGrant(ctx context.Context, tenantID, employeeID, typeCode string, days float64, grantYear int) error
}
