package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/performance"
)

type fakeStore struct {
	StoreAPI
	employeeID string
	goals      []performance.Goal
	team       []performance.Goal
}

func (f *fakeStore) EmployeeIDByUserID(context.Context, string, string) (string, error) {
	if f.employeeID == "" {
		return "", ErrNoEmployeeRecord
	}
	return f.employeeID, nil
}

func (f *fakeStore) LeaveTotals(context.Context, string, string) (LeaveTotals, error) {
	return LeaveTotals{Available: 12, Pending: 2}, nil
}

func (f *fakeStore) Payslips(context.Context, string, string) (int, *PayslipSummary, error) {
	return 3, &PayslipSummary{ID: "ps3", Net: 9500}, nil
}

func (f *fakeStore) EmployeeGoals(context.Context, string, string) ([]performance.Goal, error) {
	return f.goals, nil
}

func (f *fakeStore) PendingFeedback(context.Context, string, string) (int, error) { return 2, nil }

func (f *fakeStore) TeamSize(context.Context, string, string) (int, error) { return 4, nil }

func (f *fakeStore) TeamGoals(context.Context, string, string) ([]performance.Goal, error) {
	return f.team, nil
}

func (f *fakeStore) PendingApprovals(context.Context, string, string) (int, error) { return 1, nil }

func (f *fakeStore) HeadcountByCompany(context.Context, string) (map[string]int, error) {
	return map[string]int{"ACME": 10, "SOLO": 3}, nil
}

func (f *fakeStore) OpenCycles(context.Context, string) (int, int, error) { return 1, 2, nil }

func (f *fakeStore) PayrollPeriodsByStatus(context.Context, string) (map[string]int, error) {
	return map[string]int{"draft": 1, "finalized": 5}, nil
}

func (f *fakeStore) PendingLeave(context.Context, string) (int, error) { return 7, nil }

func goal(employeeID, name string, current, target float64) performance.Goal {
	return performance.Goal{EmployeeID: employeeID, EmployeeName: name, CurrentValue: &current, TargetValue: target, Weight: 1, Status: performance.GoalStatusActive}
}

func TestEmployeeDashboard(t *testing.T) {
	store := &fakeStore{employeeID: "e1", goals: []performance.Goal{goal("e1", "Ana", 90, 100), goal("e1", "Ana", 110, 100)}}
	svc := NewService(store)

	out, err := svc.EmployeeDashboard(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1", RoleName: auth.RoleEmployee})
	require.NoError(t, err)
	assert.Equal(t, "e1", out.EmployeeID)
	assert.Equal(t, 12.0, out.LeaveAvailable)
	assert.Equal(t, 3, out.PayslipCount)
	assert.Equal(t, "ps3", out.LatestPayslip.ID)
	assert.Equal(t, 2, out.PendingFeedback)
	assert.Equal(t, 2, out.Goals.GoalCount)
	assert.Equal(t, 100.0, out.Goals.WeightedPercentage)
}

func TestEmployeeDashboardWithoutEmployeeRecord(t *testing.T) {
	svc := NewService(&fakeStore{})
	_, err := svc.EmployeeDashboard(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1"})
	assert.ErrorIs(t, err, ErrNoEmployeeRecord)
}

func TestManagerDashboard(t *testing.T) {
	bad := goal("e4", "Mia", 0, 100)
	bad.TargetValue = 0
	store := &fakeStore{employeeID: "m1", team: []performance.Goal{
		goal("e2", "Ana", 50, 100),
		goal("e3", "Luis", 100, 100),
		bad,
	}}
	svc := NewService(store)

	out, err := svc.ManagerDashboard(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1", RoleName: auth.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, 4, out.TeamSize)
	assert.Equal(t, 1, out.PendingApprovals)
	assert.Equal(t, 3, out.TeamGoals.GoalCount)
	assert.Equal(t, 50.0, out.TeamGoals.WeightedPercentage)
	assert.Equal(t, []string{"Ana"}, out.MembersBelowThreshold)

	_, err = svc.ManagerDashboard(context.Background(), auth.UserContext{TenantID: "t1", UserID: "u1", RoleName: auth.RoleEmployee})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHRDashboard(t *testing.T) {
	svc := NewService(&fakeStore{})

	out, err := svc.HRDashboard(context.Background(), auth.UserContext{TenantID: "t1", RoleName: auth.RoleHR})
	require.NoError(t, err)
	assert.Equal(t, 13, out.Headcount)
	assert.Equal(t, 1, out.OpenAppraisalCycles)
	assert.Equal(t, 2, out.OpenFeedbackCycles)
	assert.Equal(t, 5, out.PayrollPeriods["finalized"])
	assert.Equal(t, 7, out.PendingLeave)

	_, err = svc.HRDashboard(context.Background(), auth.UserContext{TenantID: "t1", RoleName: auth.RoleManager})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBuildJobRunsQuery(t *testing.T) {
	query, args := buildJobRunsQuery("t1", JobRunFilter{JobType: "reminders", Status: "failed"})
	assert.Contains(t, query, "job_type = $2")
	assert.Contains(t, query, "status = $3")
	assert.Equal(t, []any{"t1", "reminders", "failed"}, args)
}
