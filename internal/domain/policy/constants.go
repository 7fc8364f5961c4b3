package policy

const (
	ContextLeave       = "leave"
	ContextHiring      = "hiring"
	ContextPayroll     = "payroll"
	ContextFeedback    = "feedback"
	ContextPerformance = "performance"

	RuleAgeRestriction        = "age_restriction"
	RuleDocumentRequired      = "document_required"
	RuleTimeLimit             = "time_limit"
	RuleQualificationRequired = "qualification_required"
	RuleApprovalRequired      = "approval_required"

	SeverityBlocking = "blocking"
	SeverityWarning  = "warning"
)

var Contexts = []string{ContextLeave, ContextHiring, ContextPayroll, ContextFeedback, ContextPerformance}

var RuleTypes = []string{
	RuleAgeRestriction,
	RuleDocumentRequired,
	RuleTimeLimit,
	RuleQualificationRequired,
	RuleApprovalRequired,
}

var Severities = []string{SeverityBlocking, SeverityWarning}
