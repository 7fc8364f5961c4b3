package succession

import "time"

type Plan struct {
	ID                  string      `json:"id"`
	PositionTitle       string      `json:"positionTitle"`
	IncumbentEmployeeID *string     `json:"incumbentEmployeeId,omitempty"`
	Criticality         string      `json:"criticality"`
	Notes               string      `json:"notes,omitempty"`
	CandidateCount      int         `json:"candidateCount"`
	CreatedAt           time.Time   `json:"createdAt"`
	Candidates          []Candidate `json:"candidates,omitempty"`
}

type PlanInput struct {
	PositionTitle       string
	IncumbentEmployeeID *string
	Criticality         string
	Notes               string
}

type Candidate struct {
	ID           string       `json:"id"`
	PlanID       string       `json:"planId"`
	EmployeeID   string       `json:"employeeId"`
	EmployeeName string       `json:"employeeName"`
	Readiness    string       `json:"readiness"`
	Trend        string       `json:"trend"`
	Assessments  []Assessment `json:"assessments"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type Assessment struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidateId"`
	Readiness   string    `json:"readiness"`
	Score       float64   `json:"score"`
	Notes       string    `json:"notes,omitempty"`
	AssessedBy  *string   `json:"assessedBy,omitempty"`
	AssessedAt  time.Time `json:"assessedAt"`
}

type AssessmentInput struct {
	Readiness  string
	Score      float64
	Notes      string
	AssessedBy string
}
