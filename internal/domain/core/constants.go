package core

const (
	EmployeeStatusActive     = "active"
	EmployeeStatusInactive   = "inactive"
	EmployeeStatusTerminated = "terminated"
)

const (
	ModulePayroll     = "payroll"
	ModulePerformance = "performance"
	ModuleFeedback    = "feedback"
	ModuleLeave       = "leave"
	ModuleSuccession  = "succession"
	ModulePolicy      = "policy"
	ModuleAI          = "ai"
	ModuleImport      = "import"
)

// Modules lists every switchable module; a tenant without a stored flag has it enabled.
var Modules = []string{
	ModulePayroll,
	ModulePerformance,
	ModuleFeedback,
	ModuleLeave,
	ModuleSuccession,
	ModulePolicy,
	ModuleAI,
	ModuleImport,
}

var RiskClasses = []string{"I", "II", "III", "IV", "V"}

var PayFrequencies = []string{"monthly", "biweekly", "weekly"}

var EmployeeStatuses = []string{EmployeeStatusActive, EmployeeStatusInactive, EmployeeStatusTerminated}

const (
	FieldCURP        = "curp"
	FieldRFC         = "rfc"
	FieldNSS         = "nss"
	FieldDailySalary = "dailySalary"
)
