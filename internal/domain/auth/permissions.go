package auth

const (
	PermEmployeesRead     = "core.employees.read"
	PermEmployeesWrite    = "core.employees.write"
	PermOrgRead           = "core.org.read"
	PermOrgWrite          = "core.org.write"
	PermModulesManage     = "core.modules.manage"
	PermPayrollRead       = "payroll.read"
	PermPayrollRun        = "payroll.run"
	PermPayrollFinalize   = "payroll.finalize"
	PermPayrollTables     = "payroll.tables.manage"
	PermTaxCalculate      = "tax.calculate"
	PermPerformanceRead   = "performance.read"
	PermPerformanceWrite  = "performance.write"
	PermPerformanceManage = "performance.manage"
	PermFeedbackRead      = "feedback.read"
	PermFeedbackWrite     = "feedback.write"
	PermFeedbackManage    = "feedback.manage"
	PermPolicyRead        = "policy.read"
	PermPolicyManage      = "policy.manage"
	PermPolicyOverride    = "policy.override"
	PermLeaveRead         = "leave.read"
	PermLeaveWrite        = "leave.write"
	PermLeaveApprove      = "leave.approve"
	PermLeaveManage       = "leave.manage"
	PermSuccessionRead    = "succession.read"
	PermSuccessionManage  = "succession.manage"
	PermAIAnalyze         = "ai.analyze"
	PermNotificationsSend = "notifications.send"
	PermUsersImport       = "users.import"
	PermReportsRead       = "reports.read"
	PermAuditRead         = "audit.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermOrgRead,
	PermOrgWrite,
	PermModulesManage,
	PermPayrollRead,
	PermPayrollRun,
	PermPayrollFinalize,
	PermPayrollTables,
	PermTaxCalculate,
	PermPerformanceRead,
	PermPerformanceWrite,
	PermPerformanceManage,
	PermFeedbackRead,
	PermFeedbackWrite,
	PermFeedbackManage,
	PermPolicyRead,
	PermPolicyManage,
	PermPolicyOverride,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermLeaveManage,
	PermSuccessionRead,
	PermSuccessionManage,
	PermAIAnalyze,
	PermNotificationsSend,
	PermUsersImport,
	PermReportsRead,
	PermAuditRead,
}

var employeePermissions = []string{
	PermEmployeesRead,
	PermOrgRead,
	PermPayrollRead,
	PermPerformanceRead,
	PermPerformanceWrite,
	PermFeedbackRead,
	PermFeedbackWrite,
	PermPolicyRead,
	PermLeaveRead,
	PermLeaveWrite,
	PermAIAnalyze,
	PermReportsRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: employeePermissions,
	RoleManager: append(append([]string{}, employeePermissions...),
		PermLeaveApprove,
		PermTaxCalculate,
		PermSuccessionRead,
	),
	RoleHR:    without(DefaultPermissions, PermModulesManage),
	RoleAdmin: DefaultPermissions,
}

func without(perms []string, drop ...string) []string {
	skip := map[string]struct{}{}
	for _, perm := range drop {
		skip[perm] = struct{}{}
	}
	out := make([]string, 0, len(perms))
	for _, perm := range perms {
		if _, ok := skip[perm]; !ok {
			out = append(out, perm)
		}
	}
	return out
}

// ValidRole reports whether name is one of the seeded roles.
func ValidRole(name string) bool {
	_, ok := RolePermissions[name]
	return ok
}
