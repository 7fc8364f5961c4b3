package payroll

import (
	"encoding/json"
	"time"

	"hris/internal/domain/payroll/statutory"
)

type Period struct {
	ID          string               `json:"id"`
	CompanyID   string               `json:"companyId"`
	CompanyName string               `json:"companyName,omitempty"`
	PeriodType  statutory.PeriodType `json:"periodType"`
	StartDate   string               `json:"startDate"`
	EndDate     string               `json:"endDate"`
	TaxYear     int                  `json:"taxYear"`
	Status      string               `json:"status"`
	CreatedAt   time.Time            `json:"createdAt"`
	FinalizedAt *time.Time           `json:"finalizedAt,omitempty"`
}

type NewPeriod struct {
	CompanyID  string
	PeriodType statutory.PeriodType
	StartDate  time.Time
	EndDate    time.Time
}

// Company carries the employer attributes a run needs.
type Company struct {
	ID        string
	Name      string
	StateCode string
	RiskClass string
}

type Result struct {
	ID           string          `json:"id"`
	PeriodID     string          `json:"periodId"`
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName,omitempty"`
	Gross        float64         `json:"gross"`
	ISR          float64         `json:"isr"`
	IMSSEmployee float64         `json:"imssEmployee"`
	IMSSEmployer float64         `json:"imssEmployer"`
	ISN          float64         `json:"isn"`
	Net          float64         `json:"net"`
	Breakdown    json.RawMessage `json:"breakdown,omitempty"`
	Warnings     []string        `json:"warnings"`
}

// ResultInput is one employee's computed line, written by a run.
type ResultInput struct {
	EmployeeID   string
	Gross        float64
	ISR          float64
	IMSSEmployee float64
	IMSSEmployer float64
	ISN          float64
	Net          float64
	Breakdown    []byte
	Warnings     []string
}

type Payslip struct {
	ID         string    `json:"id"`
	PeriodID   string    `json:"periodId"`
	EmployeeID string    `json:"employeeId"`
	StartDate  string    `json:"startDate"`
	EndDate    string    `json:"endDate"`
	Gross      float64   `json:"gross"`
	Deductions float64   `json:"deductions"`
	Net        float64   `json:"net"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EmployeePayrollData is an active employee as read for a run. DailySalary is
// the plaintext or sealed column value, whichever is populated.
type EmployeePayrollData struct {
	EmployeeID          string
	FirstName           string
	LastName            string
	HireDate            time.Time
	DailySalary         *float64
	DailySalarySealed   string
	VariableDailyIncome float64
}

type SkippedEmployee struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

type RunSummary struct {
	PeriodID          string            `json:"periodId"`
	Status            string            `json:"status"`
	TaxYear           int               `json:"taxYear"`
	EmployeeCount     int               `json:"employeeCount"`
	TotalGross        float64           `json:"totalGross"`
	TotalDeductions   float64           `json:"totalDeductions"`
	TotalNet          float64           `json:"totalNet"`
	TotalEmployerCost float64           `json:"totalEmployerCost"`
	Warnings          map[string]int    `json:"warnings"`
	Skipped           []SkippedEmployee `json:"skipped"`
}

type PayslipPDFData struct {
	PayslipID    string
	CompanyName  string
	FirstName    string
	LastName     string
	Email        string
	PeriodType   string
	StartDate    time.Time
	EndDate      time.Time
	Gross        float64
	ISR          float64
	IMSSEmployee float64
	Net          float64
	Breakdown    []byte
}
