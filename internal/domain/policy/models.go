package policy

import (
	"encoding/json"
	"time"
)

type Rule struct {
	ID        string          `json:"id"`
	CompanyID *string         `json:"companyId,omitempty"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Context   string          `json:"context"`
	RuleType  string          `json:"ruleType"`
	Severity  string          `json:"severity"`
	Config    json.RawMessage `json:"config"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type RuleInput struct {
	CompanyID *string
	Code      string
	Name      string
	Context   string
	RuleType  string
	Severity  string
	Config    json.RawMessage
	Active    bool
}

// RuleConfig is the union of every rule type's settings; each type reads its own fields.
type RuleConfig struct {
	MinAge         *int     `json:"minAge,omitempty"`
	MaxAge         *int     `json:"maxAge,omitempty"`
	Documents      []string `json:"documents,omitempty"`
	Qualifications []string `json:"qualifications,omitempty"`
	MinNoticeDays  *int     `json:"minNoticeDays,omitempty"`
	MaxDays        *float64 `json:"maxDays,omitempty"`
	Field          string   `json:"field,omitempty"`
	Threshold      *float64 `json:"threshold,omitempty"`
}

type Finding struct {
	RuleID   string `json:"ruleId"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	RuleType string `json:"ruleType"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type Evaluation struct {
	Violations []Finding `json:"violations"`
	Warnings   []Finding `json:"warnings"`
	Allowed    bool      `json:"allowed"`
}

// Override is an acknowledged warning with the caller's justification.
type Override struct {
	RuleID        string `json:"ruleId"`
	Justification string `json:"justification"`
}

type Enforcement struct {
	TenantID  string
	CompanyID string
	Context   string
	Payload   []byte
	// Justifications maps rule ids to the reason a warning is accepted.
	Justifications map[string]string
}

type Decision struct {
	Evaluation Evaluation `json:"evaluation"`
	Overrides  []Override `json:"overrides,omitempty"`
}
