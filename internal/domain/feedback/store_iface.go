package feedback

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListCycles(ctx context.Context, tenantID string) ([]Cycle, error)
	GetCycle(ctx context.Context, tenantID, cycleID string) (Cycle, error)
	CreateCycle(ctx context.Context, tenantID string, in CycleInput) (Cycle, error)
	TransitionCycle(ctx context.Context, tenantID, cycleID, from, to string) (bool, error)
	CreateRequests(ctx context.Context, tenantID, cycleID, subjectEmployeeID string, assignments []Assignment) (int, error)
	ListPendingRequests(ctx context.Context, tenantID, reviewerEmployeeID string) ([]Request, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (Request, error)
	SubmitRequest(ctx context.Context, tenantID, requestID string, rating float64, comments string) (bool, error)
	ListResponses(ctx context.Context, tenantID, cycleID, subjectEmployeeID string) ([]Response, error)
	RequestsDue(ctx context.Context, tenantID string, from, to time.Time) ([]Reminder, error)
}
