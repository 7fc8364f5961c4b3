package payroll

import "errors"

var (
	ErrPeriodNotFound       = errors.New("payroll period not found")
	ErrCompanyNotFound      = errors.New("company not found")
	ErrPayslipNotFound      = errors.New("payslip not found")
	ErrPeriodFinalized      = errors.New("payroll period is already finalized")
	ErrFinalizeInvalidState = errors.New("payroll period must be reviewed before finalize")
	ErrFinalizeNoResults    = errors.New("payroll period has no payroll results")
	ErrNoEmployees          = errors.New("company has no active employees to pay")
)
