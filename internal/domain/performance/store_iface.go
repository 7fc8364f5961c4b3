package performance

import (
	"context"
	"time"
)

// GoalFilter selects goals by owner; an empty filter with All unset matches nothing.
type GoalFilter struct {
	All               bool
	EmployeeID        string
	ManagerEmployeeID string
}

type StoreAPI interface {
	ListGoals(ctx context.Context, tenantID string, filter GoalFilter) ([]Goal, error)
	GetGoal(ctx context.Context, tenantID, goalID string) (Goal, error)
	CreateGoal(ctx context.Context, tenantID string, in GoalInput) (Goal, error)
	UpdateGoal(ctx context.Context, tenantID, goalID string, in GoalInput) (Goal, error)
	DeleteGoal(ctx context.Context, tenantID, goalID string) error

	ListCycles(ctx context.Context, tenantID string) ([]AppraisalCycle, error)
	GetCycle(ctx context.Context, tenantID, cycleID string) (AppraisalCycle, error)
	CreateCycle(ctx context.Context, tenantID string, in CycleInput) (AppraisalCycle, error)
	TransitionCycle(ctx context.Context, tenantID, cycleID, from, to string) (bool, error)
	SelfReviewsDue(ctx context.Context, tenantID string, from, to time.Time) ([]SelfReviewReminder, error)
}
