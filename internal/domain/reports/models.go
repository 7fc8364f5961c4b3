package reports

import (
	"time"

	json "github.com/goccy/go-json"

	"hris/internal/domain/performance"
)

type EmployeeDashboard struct {
	EmployeeID      string                  `json:"employeeId"`
	LeaveAvailable  float64                 `json:"leaveAvailable"`
	LeavePending    float64                 `json:"leavePending"`
	PayslipCount    int                     `json:"payslipCount"`
	LatestPayslip   *PayslipSummary         `json:"latestPayslip,omitempty"`
	Goals           performance.GoalSummary `json:"goals"`
	PendingFeedback int                     `json:"pendingFeedback"`
}

type PayslipSummary struct {
	ID        string  `json:"id"`
	PeriodID  string  `json:"periodId"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Net       float64 `json:"net"`
}

// ManagerDashboard.MembersBelowThreshold lists reports whose weighted
// achievement is under the default threshold.
type ManagerDashboard struct {
	ManagerEmployeeID     string                  `json:"managerEmployeeId"`
	TeamSize              int                     `json:"teamSize"`
	PendingApprovals      int                     `json:"pendingApprovals"`
	TeamGoals             performance.GoalSummary `json:"teamGoals"`
	MembersBelowThreshold []string                `json:"membersBelowThreshold"`
}

type HRDashboard struct {
	Headcount           int            `json:"headcount"`
	HeadcountByCompany  map[string]int `json:"headcountByCompany"`
	OpenAppraisalCycles int            `json:"openAppraisalCycles"`
	OpenFeedbackCycles  int            `json:"openFeedbackCycles"`
	PayrollPeriods      map[string]int `json:"payrollPeriods"`
	PendingLeave        int            `json:"pendingLeave"`
}

// LeaveTotals is the sum across an employee's leave balances.
type LeaveTotals struct {
	Available float64
	Pending   float64
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

type JobRun struct {
	ID          string          `json:"id"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}
