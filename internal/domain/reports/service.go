package reports

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"hris/internal/domain/auth"
	"hris/internal/domain/performance"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) EmployeeDashboard(ctx context.Context, viewer auth.UserContext) (EmployeeDashboard, error) {
	employeeID, err := s.store.EmployeeIDByUserID(ctx, viewer.TenantID, viewer.UserID)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	out := EmployeeDashboard{EmployeeID: employeeID}
	var goals []performance.Goal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := s.store.LeaveTotals(gctx, viewer.TenantID, employeeID)
		out.LeaveAvailable, out.LeavePending = totals.Available, totals.Pending
		return err
	})
	g.Go(func() (err error) {
		out.PayslipCount, out.LatestPayslip, err = s.store.Payslips(gctx, viewer.TenantID, employeeID)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.store.EmployeeGoals(gctx, viewer.TenantID, employeeID)
		return err
	})
	g.Go(func() (err error) {
		out.PendingFeedback, err = s.store.PendingFeedback(gctx, viewer.TenantID, employeeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return EmployeeDashboard{}, err
	}

	out.Goals = summarize(employeeID, goals)
	return out, nil
}

func (s *Service) ManagerDashboard(ctx context.Context, viewer auth.UserContext) (ManagerDashboard, error) {
	if !viewer.IsManager() && !viewer.IsHR() {
		return ManagerDashboard{}, ErrForbidden
	}
	managerID, err := s.store.EmployeeIDByUserID(ctx, viewer.TenantID, viewer.UserID)
	if err != nil {
		return ManagerDashboard{}, err
	}
	out := ManagerDashboard{ManagerEmployeeID: managerID}
	var goals []performance.Goal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TeamSize, err = s.store.TeamSize(gctx, viewer.TenantID, managerID)
		return err
	})
	g.Go(func() (err error) {
		out.PendingApprovals, err = s.store.PendingApprovals(gctx, viewer.TenantID, managerID)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.store.TeamGoals(gctx, viewer.TenantID, managerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ManagerDashboard{}, err
	}

	out.TeamGoals = summarize(managerID, goals)
	out.MembersBelowThreshold = membersBelowThreshold(goals)
	return out, nil
}

func (s *Service) HRDashboard(ctx context.Context, viewer auth.UserContext) (HRDashboard, error) {
	if !viewer.IsHR() {
		return HRDashboard{}, ErrForbidden
	}
	var out HRDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.HeadcountByCompany, err = s.store.HeadcountByCompany(gctx, viewer.TenantID)
		return err
	})
	g.Go(func() (err error) {
		out.OpenAppraisalCycles, out.OpenFeedbackCycles, err = s.store.OpenCycles(gctx, viewer.TenantID)
		return err
	})
	g.Go(func() (err error) {
		out.PayrollPeriods, err = s.store.PayrollPeriodsByStatus(gctx, viewer.TenantID)
		return err
	})
	g.Go(func() (err error) {
		out.PendingLeave, err = s.store.PendingLeave(gctx, viewer.TenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return HRDashboard{}, err
	}
	for _, count := range out.HeadcountByCompany {
		out.Headcount += count
	}
	return out, nil
}

func (s *Service) JobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	total, err := s.store.CountJobRuns(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.store.ListJobRuns(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// summarize scores goals in place. A goal whose target or thresholds are
// unusable counts as not started instead of failing the dashboard.
func summarize(ownerID string, goals []performance.Goal) performance.GoalSummary {
	for i := range goals {
		if err := goals[i].Score(); err != nil {
			goals[i].Achievement = performance.Achievement{Level: performance.LevelNotStarted}
		}
	}
	return performance.SummarizeGoals(ownerID, goals)
}

// membersBelowThreshold expects scored goals.
func membersBelowThreshold(goals []performance.Goal) []string {
	byEmployee := map[string][]performance.Goal{}
	names := map[string]string{}
	for _, goal := range goals {
		byEmployee[goal.EmployeeID] = append(byEmployee[goal.EmployeeID], goal)
		names[goal.EmployeeID] = goal.EmployeeName
	}
	out := []string{}
	for employeeID, own := range byEmployee {
		if performance.SummarizeGoals(employeeID, own).Level == performance.LevelBelow {
			out = append(out, names[employeeID])
		}
	}
	slices.Sort(out)
	return out
}
