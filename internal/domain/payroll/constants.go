package payroll

const (
	PeriodStatusDraft     = "draft"
	PeriodStatusReviewed  = "reviewed"
	PeriodStatusFinalized = "finalized"

	EmployeeStatusActive = "active"

	WarningNegativeNet = "net pay is negative"
)
