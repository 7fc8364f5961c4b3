package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"hris/internal/domain/auth"
	"hris/internal/domain/notifications"
	"hris/internal/domain/policy"
	"hris/internal/platform/localdate"
	"hris/internal/platform/requestctx"
)

type PolicyEnforcer interface {
	Enforce(ctx context.Context, in policy.Enforcement) (policy.Decision, error)
	RecordOverrides(ctx context.Context, tenantID, policyContext, entityType, entityID, actorUserID string, overrides []policy.Override) error
}

type Notifier interface {
	Create(ctx context.Context, tenantID, userID, ntype, title, body string) error
}

type Service struct {
	store    StoreAPI
	policies PolicyEnforcer
	notifier Notifier
	now      func() time.Time
}

func NewService(store StoreAPI, policies PolicyEnforcer, notifier Notifier) *Service {
	return &Service{store: store, policies: policies, notifier: notifier, now: time.Now}
}

func (s *Service) ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	return s.store.ListTypes(ctx, tenantID)
}

func (s *Service) CreateType(ctx context.Context, tenantID string, in LeaveType) (LeaveType, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	return s.store.CreateType(ctx, tenantID, in)
}

func (s *Service) ListBalances(ctx context.Context, tenantID, employeeID string) ([]Balance, error) {
	return s.store.ListBalances(ctx, tenantID, employeeID)
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	return s.store.EmployeeIDByUserID(ctx, tenantID, userID)
}

// ResolveFilter narrows request listings: HR sees all, managers see their reports and
// themselves, employees see their own.
func (s *Service) ResolveFilter(ctx context.Context, viewer auth.UserContext, status string) (RequestFilter, error) {
	filter := RequestFilter{Status: status}
	if viewer.IsHR() {
		filter.All = true
		return filter, nil
	}
	selfID, err := s.store.EmployeeIDByUserID(ctx, viewer.TenantID, viewer.UserID)
	if err != nil {
		return filter, err
	}
	filter.SelfEmployeeID = selfID
	if viewer.IsManager() {
		filter.ManagerEmployeeID = selfID
	}
	return filter, nil
}

func (s *Service) ListRequests(ctx context.Context, viewer auth.UserContext, status string, limit, offset int) ([]Request, int, error) {
	filter, err := s.ResolveFilter(ctx, viewer, status)
	if err != nil {
		return nil, 0, err
	}
	if !filter.All && filter.SelfEmployeeID == "" {
		return []Request{}, 0, nil
	}
	total, err := s.store.CountRequests(ctx, viewer.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	requests, err := s.store.ListRequests(ctx, viewer.TenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

type CreateResult struct {
	Request   Request           `json:"request"`
	Overrides []policy.Override `json:"overrides,omitempty"`
}

// CreateRequest computes the day count, enforces leave policies, then stores the request
// and reserves its days. Accepted policy warnings are persisted as overrides.
func (s *Service) CreateRequest(ctx context.Context, actor auth.UserContext, in RequestInput) (CreateResult, error) {
	days, err := CalculateRequestDays(in.StartDate, in.EndDate, in.StartHalf, in.EndHalf)
	if err != nil {
		return CreateResult{}, err
	}
	leaveType, err := s.store.GetType(ctx, actor.TenantID, in.LeaveTypeID)
	if err != nil {
		return CreateResult{}, err
	}
	employee, err := s.store.EmployeeInfo(ctx, actor.TenantID, in.EmployeeID)
	if err != nil {
		return CreateResult{}, err
	}
	if leaveType.RequiresDocument && len(in.Documents) == 0 {
		return CreateResult{}, ErrDocumentRequired
	}
	balance, err := s.store.GetBalance(ctx, actor.TenantID, in.EmployeeID, in.LeaveTypeID)
	if err != nil {
		return CreateResult{}, err
	}
	if balance != nil && leaveType.IsPaid && balance.Available < days {
		return CreateResult{}, ErrInsufficientBalance
	}

	var overrides []policy.Override
	if s.policies != nil {
		payload, err := policyPayload(employee, leaveType, in, days)
		if err != nil {
			return CreateResult{}, err
		}
		decision, err := s.policies.Enforce(ctx, policy.Enforcement{
			TenantID:       actor.TenantID,
			CompanyID:      employee.CompanyID,
			Context:        policy.ContextLeave,
			Payload:        payload,
			Justifications: in.Justifications,
		})
		if err != nil {
			return CreateResult{}, err
		}
		overrides = decision.Overrides
	}

	req, err := s.store.CreateRequest(ctx, actor.TenantID, in, days)
	if err != nil {
		return CreateResult{}, err
	}
	if s.policies != nil && len(overrides) > 0 {
		if err := s.policies.RecordOverrides(ctx, actor.TenantID, policy.ContextLeave, EntityLeaveRequest, req.ID, actor.UserID, overrides); err != nil {
			return CreateResult{}, err
		}
	}
	s.notify(ctx, actor.TenantID, employee.ManagerUserID, notifications.TypeLeaveSubmitted,
		"Leave request pending approval",
		fmt.Sprintf("%s requested %s (%.1f days) from %s to %s.", employee.Name, leaveType.Name, days, req.StartDate, req.EndDate))
	return CreateResult{Request: req, Overrides: overrides}, nil
}

func policyPayload(employee EmployeeInfo, leaveType LeaveType, in RequestInput, days float64) ([]byte, error) {
	payload := map[string]any{
		"employeeId":       employee.ID,
		"leaveTypeCode":    leaveType.Code,
		"startDate":        localdate.ToDateString(in.StartDate),
		"endDate":          localdate.ToDateString(in.EndDate),
		"days":             days,
		"documents":        in.Documents,
		"qualifications":   employee.Qualifications,
		"requiresDocument": leaveType.RequiresDocument,
	}
	if employee.DateOfBirth != nil {
		payload["dateOfBirth"] = localdate.ToDateString(*employee.DateOfBirth)
	}
	return json.Marshal(payload)
}

func (s *Service) Approve(ctx context.Context, actor auth.UserContext, requestID string) (Request, error) {
	return s.decide(ctx, actor, requestID, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, actor auth.UserContext, requestID string) (Request, error) {
	return s.decide(ctx, actor, requestID, StatusRejected)
}

// decide lets HR act on any request and managers act on their direct reports. Nobody
// decides their own request.
func (s *Service) decide(ctx context.Context, actor auth.UserContext, requestID, status string) (Request, error) {
	req, err := s.store.GetRequest(ctx, actor.TenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}
	employee, err := s.store.EmployeeInfo(ctx, actor.TenantID, req.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	if employee.UserID != "" && employee.UserID == actor.UserID {
		return Request{}, ErrForbidden
	}
	if !actor.IsHR() {
		if employee.ManagerUserID == "" || employee.ManagerUserID != actor.UserID {
			return Request{}, ErrForbidden
		}
	}
	decided, err := s.store.DecideRequest(ctx, actor.TenantID, requestID, status, actor.UserID)
	if err != nil {
		return Request{}, err
	}
	ntype, title := notifications.TypeLeaveApproved, "Leave request approved"
	if status == StatusRejected {
		ntype, title = notifications.TypeLeaveRejected, "Leave request rejected"
	}
	s.notify(ctx, actor.TenantID, employee.UserID, ntype, title,
		fmt.Sprintf("Your leave from %s to %s was %s.", decided.StartDate, decided.EndDate, status))
	return decided, nil
}

// Cancel withdraws a pending request; only its owner or HR may do so.
func (s *Service) Cancel(ctx context.Context, actor auth.UserContext, requestID string) (Request, error) {
	req, err := s.store.GetRequest(ctx, actor.TenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}
	employee, err := s.store.EmployeeInfo(ctx, actor.TenantID, req.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	if !actor.IsHR() && employee.UserID != actor.UserID {
		return Request{}, ErrForbidden
	}
	cancelled, err := s.store.DecideRequest(ctx, actor.TenantID, requestID, StatusCancelled, actor.UserID)
	if err != nil {
		return Request{}, err
	}
	s.notify(ctx, actor.TenantID, employee.ManagerUserID, notifications.TypeLeaveCancelled,
		"Leave request cancelled",
		fmt.Sprintf("%s cancelled the leave from %s to %s.", employee.Name, cancelled.StartDate, cancelled.EndDate))
	return cancelled, nil
}

func (s *Service) notify(ctx context.Context, tenantID, userID, ntype, title, body string) {
	if s.notifier == nil || userID == "" {
		return
	}
	if err := s.notifier.Create(ctx, tenantID, userID, ntype, title, body); err != nil {
		requestctx.Logger(ctx).Warn("leave notification failed", "type", ntype, "userId", userID, "err", err)
	}
}

// GrantVacations credits the statutory vacation days for each employee's latest completed
// service year, once per year.
func (s *Service) GrantVacations(ctx context.Context, tenantID string, now time.Time) (GrantSummary, error) {
	var summary GrantSummary
	candidates, err := s.store.GrantCandidates(ctx, tenantID, VacationTypeCode)
	if err != nil {
		return summary, err
	}
	today := localdate.FromTime(now)
	for _, c := range candidates {
		days, year, ok := VacationGrant(c, today)
		if !ok {
			continue
		}
		if err := s.store.ApplyGrant(ctx, tenantID, c.EmployeeID, VacationTypeCode, float64(days), year); err != nil {
			return summary, err
		}
		summary.EmployeesGranted++
		summary.DaysGranted += float64(days)
	}
	return summary, nil
}
