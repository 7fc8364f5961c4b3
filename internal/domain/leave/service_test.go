package leave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/policy"
)

type fakeStore struct {
	StoreAPI
	leaveType LeaveType
	employee  EmployeeInfo
	balance   *Balance
	request   Request
	created   *RequestInput
	decided   string
	grants    map[string]int
}

func (f *fakeStore) GetType(context.Context, string, string) (LeaveType, error) {
	return f.leaveType, nil
}

func (f *fakeStore) EmployeeInfo(context.Context, string, string) (EmployeeInfo, error) {
	return f.employee, nil
}

func (f *fakeStore) GetBalance(context.Context, string, string, string) (*Balance, error) {
	return f.balance, nil
}

func (f *fakeStore) CreateRequest(_ context.Context, _ string, in RequestInput, days float64) (Request, error) {
	f.created = &in
	return Request{ID: "lr1", EmployeeID: in.EmployeeID, Days: days, Status: StatusPending, StartDate: "2025-03-10", EndDate: "2025-03-12"}, nil
}

func (f *fakeStore) GetRequest(context.Context, string, string) (Request, error) {
	return f.request, nil
}

func (f *fakeStore) DecideRequest(_ context.Context, _, _, status, _ string) (Request, error) {
	f.decided = status
	r := f.request
	r.Status = status
	return r, nil
}

func (f *fakeStore) GrantCandidates(context.Context, string, string) ([]GrantCandidate, error) {
	last := 2025
	return []GrantCandidate{
		{EmployeeID: "new", HireDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{EmployeeID: "due", HireDate: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
		{EmployeeID: "done", HireDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), LastGrantYear: &last},
	}, nil
}

func (f *fakeStore) ApplyGrant(_ context.Context, _, employeeID, _ string, days float64, _ int) error {
	if f.grants == nil {
		f.grants = map[string]int{}
	}
	f.grants[employeeID] = int(days)
	return nil
}

type fakePolicies struct {
	err       error
	overrides []policy.Override
	recorded  int
	payload   []byte
}

func (p *fakePolicies) Enforce(_ context.Context, in policy.Enforcement) (policy.Decision, error) {
	p.payload = in.Payload
	if p.err != nil {
		return policy.Decision{}, p.err
	}
	return policy.Decision{Overrides: p.overrides}, nil
}

func (p *fakePolicies) RecordOverrides(_ context.Context, _, _, _, _, _ string, overrides []policy.Override) error {
	p.recorded += len(overrides)
	return nil
}

type fakeNotifier struct {
	users []string
}

func (n *fakeNotifier) Create(_ context.Context, _, userID, _, _, _ string) error {
	n.users = append(n.users, userID)
	return nil
}

var employeeActor = auth.UserContext{UserID: "u-emp", TenantID: "t1", RoleName: auth.RoleEmployee}

func newRequestInput() RequestInput {
	return RequestInput{
		EmployeeID:  "e1",
		LeaveTypeID: "vac",
		StartDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		EndHalf:     true,
	}
}

func TestCreateRequestReservesAndNotifiesManager(t *testing.T) {
	store := &fakeStore{
		leaveType: LeaveType{ID: "vac", Code: "VAC", Name: "Vacation", IsPaid: true},
		employee:  EmployeeInfo{ID: "e1", UserID: "u-emp", CompanyID: "c1", Name: "Ana", ManagerUserID: "u-boss"},
		balance:   &Balance{Available: 10},
	}
	policies := &fakePolicies{overrides: []policy.Override{{RuleID: "r1", Justification: "ok"}}}
	notifier := &fakeNotifier{}
	svc := NewService(store, policies, notifier)

	result, err := svc.CreateRequest(context.Background(), employeeActor, newRequestInput())
	require.NoError(t, err)
	assert.Equal(t, 2.5, result.Request.Days)
	assert.Equal(t, 1, policies.recorded)
	assert.Contains(t, string(policies.payload), `"days":2.5`)
	assert.Equal(t, []string{"u-boss"}, notifier.users)
}

func TestCreateRequestStopsOnPolicyDecision(t *testing.T) {
	store := &fakeStore{leaveType: LeaveType{ID: "vac"}, employee: EmployeeInfo{ID: "e1"}}
	policies := &fakePolicies{err: &policy.DecisionError{Err: policy.ErrPolicyViolation}}
	svc := NewService(store, policies, nil)

	_, err := svc.CreateRequest(context.Background(), employeeActor, newRequestInput())
	require.ErrorIs(t, err, policy.ErrPolicyViolation)
	assert.Nil(t, store.created)
}

func TestCreateRequestChecksDocumentsAndBalance(t *testing.T) {
	store := &fakeStore{leaveType: LeaveType{ID: "sick", RequiresDocument: true}, employee: EmployeeInfo{ID: "e1"}}
	svc := NewService(store, nil, nil)
	_, err := svc.CreateRequest(context.Background(), employeeActor, newRequestInput())
	require.ErrorIs(t, err, ErrDocumentRequired)

	store.leaveType = LeaveType{ID: "vac", IsPaid: true}
	store.balance = &Balance{Available: 1}
	_, err = svc.CreateRequest(context.Background(), employeeActor, newRequestInput())
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestDecideAuthorization(t *testing.T) {
	store := &fakeStore{
		request:  Request{ID: "lr1", EmployeeID: "e1", Status: StatusPending},
		employee: EmployeeInfo{ID: "e1", UserID: "u-emp", ManagerUserID: "u-boss"},
	}
	notifier := &fakeNotifier{}
	svc := NewService(store, nil, notifier)
	ctx := context.Background()

	_, err := svc.Approve(ctx, auth.UserContext{UserID: "u-other", TenantID: "t1", RoleName: auth.RoleManager}, "lr1")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Approve(ctx, auth.UserContext{UserID: "u-emp", TenantID: "t1", RoleName: auth.RoleHR}, "lr1")
	require.ErrorIs(t, err, ErrForbidden)

	approved, err := svc.Approve(ctx, auth.UserContext{UserID: "u-boss", TenantID: "t1", RoleName: auth.RoleManager}, "lr1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, []string{"u-emp"}, notifier.users)

	store.request.Status = StatusApproved
	_, err = svc.Reject(ctx, auth.UserContext{UserID: "u-hr", TenantID: "t1", RoleName: auth.RoleHR}, "lr1")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelOnlyByOwnerOrHR(t *testing.T) {
	store := &fakeStore{
		request:  Request{ID: "lr1", EmployeeID: "e1", Status: StatusPending},
		employee: EmployeeInfo{ID: "e1", UserID: "u-emp"},
	}
	svc := NewService(store, nil, nil)
	_, err := svc.Cancel(context.Background(), auth.UserContext{UserID: "u-x", TenantID: "t1", RoleName: auth.RoleEmployee}, "lr1")
	require.ErrorIs(t, err, ErrForbidden)

	cancelled, err := svc.Cancel(context.Background(), employeeActor, "lr1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestGrantVacations(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, nil)
	summary, err := svc.GrantVacations(context.Background(), "t1", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EmployeesGranted)
	assert.Equal(t, map[string]int{"due": 14}, store.grants)
}
