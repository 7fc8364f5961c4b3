package core

import (
	"context"
	"errors"

	"hris/internal/domain/auth"
	"hris/internal/platform/requestctx"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListGroups(ctx context.Context, tenantID string) ([]CompanyGroup, error) {
	return s.store.ListGroups(ctx, tenantID)
}

func (s *Service) CreateGroup(ctx context.Context, tenantID string, group CompanyGroup) (CompanyGroup, error) {
	group.Code = NormalizeID(group.Code)
	return s.store.CreateGroup(ctx, tenantID, group)
}

func (s *Service) ListCompanies(ctx context.Context, tenantID string) ([]Company, error) {
	return s.store.ListCompanies(ctx, tenantID)
}

func (s *Service) CreateCompany(ctx context.Context, tenantID string, company Company) (Company, error) {
	company.Code = NormalizeID(company.Code)
	company.StateCode = NormalizeID(company.StateCode)
	company.RiskClass = NormalizeID(company.RiskClass)
	company.RFC = NormalizeID(company.RFC)
	if company.RiskClass == "" {
		company.RiskClass = "I"
	}
	if company.GroupID != "" {
		if err := s.groupExists(ctx, tenantID, company.GroupID); err != nil {
			return Company{}, err
		}
	}
	return s.store.CreateCompany(ctx, tenantID, company)
}

func (s *Service) groupExists(ctx context.Context, tenantID, groupID string) error {
	groups, err := s.store.ListGroups(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if g.ID == groupID {
			return nil
		}
	}
	return ErrGroupNotFound
}

func (s *Service) ListDivisions(ctx context.Context, tenantID, companyID string) ([]Division, error) {
	return s.store.ListDivisions(ctx, tenantID, companyID)
}

func (s *Service) CreateDivision(ctx context.Context, tenantID string, division Division) (Division, error) {
	if _, err := s.store.GetCompany(ctx, tenantID, division.CompanyID); err != nil {
		return Division{}, err
	}
	division.Code = NormalizeID(division.Code)
	return s.store.CreateDivision(ctx, tenantID, division)
}

// ResolveScope maps a viewer to the employees they may list: HR sees the
// tenant, managers their direct reports and themselves, employees themselves.
func (s *Service) ResolveScope(ctx context.Context, viewer auth.UserContext) (EmployeeScope, error) {
	if viewer.IsHR() {
		return EmployeeScope{All: true}, nil
	}
	selfID, err := s.store.EmployeeIDByUserID(ctx, viewer.TenantID, viewer.UserID)
	if err != nil {
		return EmployeeScope{}, err
	}
	scope := EmployeeScope{SelfEmployeeID: selfID}
	if viewer.IsManager() {
		scope.ManagerEmployeeID = selfID
	}
	return scope, nil
}

// CanAccess reports whether viewer may see or act on the records of employeeID:
// HR always, anyone for themselves, managers for their direct reports.
func (s *Service) CanAccess(ctx context.Context, viewer auth.UserContext, employeeID string) (bool, error) {
	if viewer.IsHR() {
		return true, nil
	}
	selfID, err := s.store.EmployeeIDByUserID(ctx, viewer.TenantID, viewer.UserID)
	if err != nil || selfID == "" {
		return false, err
	}
	if selfID == employeeID {
		return true, nil
	}
	if !viewer.IsManager() {
		return false, nil
	}
	return s.store.IsManagerOf(ctx, viewer.TenantID, selfID, employeeID)
}

func (s *Service) ListEmployees(ctx context.Context, viewer auth.UserContext, limit, offset int) ([]Employee, int, error) {
	scope, err := s.ResolveScope(ctx, viewer)
	if err != nil {
		return nil, 0, err
	}
	if !scope.All && scope.SelfEmployeeID == "" {
		return []Employee{}, 0, nil
	}
	total, err := s.store.CountEmployees(ctx, viewer.TenantID, scope)
	if err != nil {
		return nil, 0, err
	}
	employees, err := s.store.ListEmployees(ctx, viewer.TenantID, scope, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range employees {
		FilterEmployeeFields(&employees[i], viewer, employees[i].ID == scope.SelfEmployeeID)
	}
	return employees, total, nil
}

// ViewEmployee authorizes and filters a single record and logs which sensitive fields were shown.
func (s *Service) ViewEmployee(ctx context.Context, viewer auth.UserContext, employeeID string) (Employee, error) {
	emp, err := s.store.GetEmployee(ctx, viewer.TenantID, employeeID)
	if err != nil {
		return Employee{}, err
	}
	isSelf := emp.UserID != "" && emp.UserID == viewer.UserID
	if !viewer.IsHR() && !isSelf {
		allowed := false
		if viewer.IsManager() {
			selfID, err := s.store.EmployeeIDByUserID(ctx, viewer.TenantID, viewer.UserID)
			if err != nil {
				return Employee{}, err
			}
			if selfID != "" {
				if allowed, err = s.store.IsManagerOf(ctx, viewer.TenantID, selfID, employeeID); err != nil {
					return Employee{}, err
				}
			}
		}
		if !allowed {
			return Employee{}, ErrAccessDenied
		}
	}
	s.logAccess(ctx, viewer, &emp, isSelf)
	return emp, nil
}

func (s *Service) Me(ctx context.Context, viewer auth.UserContext) (Employee, error) {
	emp, err := s.store.GetEmployeeByUserID(ctx, viewer.TenantID, viewer.UserID)
	if err != nil {
		return Employee{}, err
	}
	s.logAccess(ctx, viewer, &emp, true)
	return emp, nil
}

func (s *Service) logAccess(ctx context.Context, viewer auth.UserContext, emp *Employee, isSelf bool) {
	fields := FilterEmployeeFields(emp, viewer, isSelf)
	if len(fields) == 0 {
		return
	}
	if err := s.store.InsertAccessLog(ctx, viewer.TenantID, viewer.UserID, emp.ID, requestctx.GetRequestID(ctx), fields); err != nil {
		requestctx.Logger(ctx).Warn("access log insert failed", "employeeId", emp.ID, "err", err)
	}
}

func (s *Service) CreateEmployee(ctx context.Context, tenantID string, in EmployeeInput) (Employee, error) {
	if err := s.checkReferences(ctx, tenantID, "", in); err != nil {
		return Employee{}, err
	}
	if in.Status == "" {
		in.Status = EmployeeStatusActive
	}
	if in.PayFrequency == "" {
		in.PayFrequency = "biweekly"
	}
	return s.store.CreateEmployee(ctx, tenantID, in)
}

func (s *Service) UpdateEmployee(ctx context.Context, tenantID, employeeID string, in EmployeeInput) (Employee, error) {
	if err := s.checkReferences(ctx, tenantID, employeeID, in); err != nil {
		return Employee{}, err
	}
	return s.store.UpdateEmployee(ctx, tenantID, employeeID, in)
}

func (s *Service) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	return s.store.GetEmployee(ctx, tenantID, employeeID)
}

func (s *Service) checkReferences(ctx context.Context, tenantID, employeeID string, in EmployeeInput) error {
	if _, err := s.store.GetCompany(ctx, tenantID, in.CompanyID); err != nil {
		return err
	}
	if in.ManagerID == "" {
		return nil
	}
	if in.ManagerID == employeeID {
		return ErrManagerNotFound
	}
	if _, err := s.store.GetEmployee(ctx, tenantID, in.ManagerID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return ErrManagerNotFound
		}
		return err
	}
	return nil
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	return s.store.EmployeeIDByUserID(ctx, tenantID, userID)
}

func (s *Service) IsManagerOf(ctx context.Context, tenantID, managerEmployeeID, employeeID string) (bool, error) {
	return s.store.IsManagerOf(ctx, tenantID, managerEmployeeID, employeeID)
}

func (s *Service) ManagerUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	return s.store.ManagerUserID(ctx, tenantID, employeeID)
}

// ListModules returns every module with its effective flag.
func (s *Service) ListModules(ctx context.Context, tenantID string) ([]ModuleFlag, error) {
	stored, err := s.store.ListModuleFlags(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]ModuleFlag, 0, len(Modules))
	for _, module := range Modules {
		if flag, ok := stored[module]; ok {
			out = append(out, flag)
			continue
		}
		out = append(out, ModuleFlag{Module: module, Enabled: true})
	}
	return out, nil
}

func (s *Service) SetModule(ctx context.Context, tenantID, module string, enabled bool) (ModuleFlag, error) {
	if !ValidModule(module) {
		return ModuleFlag{}, ErrUnknownModule
	}
	return s.store.SetModule(ctx, tenantID, module, enabled)
}

func (s *Service) ModuleEnabled(ctx context.Context, tenantID, module string) (bool, error) {
	return s.store.ModuleEnabled(ctx, tenantID, module)
}
