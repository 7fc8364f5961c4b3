package leave

import "time"

type LeaveType struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	IsPaid           bool   `json:"isPaid"`
	RequiresDocument bool   `json:"requiresDocument"`
}

type Balance struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employeeId"`
	LeaveTypeID   string    `json:"leaveTypeId"`
	LeaveTypeCode string    `json:"leaveTypeCode"`
	LeaveTypeName string    `json:"leaveTypeName"`
	Balance       float64   `json:"balance"`
	Pending       float64   `json:"pending"`
	Used          float64   `json:"used"`
	Available     float64   `json:"available"`
	LastGrantYear *int      `json:"lastGrantYear,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Request struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	LeaveTypeID string     `json:"leaveTypeId"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	StartHalf   bool       `json:"startHalf"`
	EndHalf     bool       `json:"endHalf"`
	Days        float64    `json:"days"`
	Reason      string     `json:"reason,omitempty"`
	Documents   []string   `json:"documents"`
	Status      string     `json:"status"`
	ApprovedBy  *string    `json:"approvedBy,omitempty"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type RequestInput struct {
	EmployeeID     string
	LeaveTypeID    string
	StartDate      time.Time
	EndDate        time.Time
	StartHalf      bool
	EndHalf        bool
	Reason         string
	Documents      []string
	Justifications map[string]string
}

// EmployeeInfo is what request creation needs to know about the requester.
type EmployeeInfo struct {
	ID             string
	UserID         string
	CompanyID      string
	Name           string
	DateOfBirth    *time.Time
	HireDate       time.Time
	Qualifications []string
	ManagerID      string
	ManagerUserID  string
}

type RequestFilter struct {
	Status            string
	All               bool
	ManagerEmployeeID string
	SelfEmployeeID    string
}

// GrantCandidate is an active employee with the vacation grant already applied up to LastGrantYear.
type GrantCandidate struct {
	EmployeeID    string
	HireDate      time.Time
	LastGrantYear *int
}

type GrantSummary struct {
	EmployeesGranted int     `json:"employeesGranted"`
	DaysGranted      float64 `json:"daysGranted"`
}
