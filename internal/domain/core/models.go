package core

import "time"

type CompanyGroup struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Company struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId,omitempty"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	RFC       string    `json:"rfc,omitempty"`
	StateCode string    `json:"stateCode"`
	RiskClass string    `json:"riskClass"`
	CreatedAt time.Time `json:"createdAt"`
}

type Division struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Employee struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"userId,omitempty"`
	CompanyID           string    `json:"companyId"`
	DivisionID          string    `json:"divisionId,omitempty"`
	EmployeeNumber      string    `json:"employeeNumber,omitempty"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	Email               string    `json:"email"`
	JobTitle            string    `json:"jobTitle,omitempty"`
	ManagerID           string    `json:"managerId,omitempty"`
	HireDate            string    `json:"hireDate"`
	DateOfBirth         string    `json:"dateOfBirth,omitempty"`
	CURP                string    `json:"curp,omitempty"`
	RFC                 string    `json:"rfc,omitempty"`
	NSS                 string    `json:"nss,omitempty"`
	DailySalary         *float64  `json:"dailySalary,omitempty"`
	VariableDailyIncome *float64  `json:"variableDailyIncome,omitempty"`
	PayFrequency        string    `json:"payFrequency"`
	Qualifications      []string  `json:"qualifications"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// EmployeeInput carries plaintext values; the store seals sensitive ones.
type EmployeeInput struct {
	UserID              string
	CompanyID           string
	DivisionID          string
	EmployeeNumber      string
	FirstName           string
	LastName            string
	Email               string
	JobTitle            string
	ManagerID           string
	HireDate            time.Time
	DateOfBirth         *time.Time
	CURP                string
	RFC                 string
	NSS                 string
	DailySalary         float64
	VariableDailyIncome float64
	PayFrequency        string
	Qualifications      []string
	Status              string
}

// EmployeeScope narrows employee listings to what a viewer may see.
type EmployeeScope struct {
	All               bool
	ManagerEmployeeID string
	SelfEmployeeID    string
}

type ModuleFlag struct {
	Module    string     `json:"module"`
	Enabled   bool       `json:"enabled"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
