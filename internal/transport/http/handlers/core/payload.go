package corehandler

import (
	"strings"
	"time"

	"hris/internal/domain/core"
	"hris/internal/transport/http/shared"
)

type employeePayload struct {
	UserID              string   `json:"userId"`
	CompanyID           string   `json:"companyId"`
	DivisionID          string   `json:"divisionId"`
	EmployeeNumber      string   `json:"employeeNumber"`
	FirstName           string   `json:"firstName"`
	LastName            string   `json:"lastName"`
	Email               string   `json:"email"`
	JobTitle            string   `json:"jobTitle"`
	ManagerID           string   `json:"managerId"`
	HireDate            string   `json:"hireDate"`
	DateOfBirth         string   `json:"dateOfBirth"`
	CURP                string   `json:"curp"`
	RFC                 string   `json:"rfc"`
	NSS                 string   `json:"nss"`
	DailySalary         float64  `json:"dailySalary"`
	VariableDailyIncome float64  `json:"variableDailyIncome"`
	PayFrequency        string   `json:"payFrequency"`
	Qualifications      []string `json:"qualifications"`
	Status              string   `json:"status"`
}

func (p employeePayload) toInput() (core.EmployeeInput, *shared.Validator) {
	v := shared.NewValidator()
	v.Required("companyId", p.CompanyID, "is required")
	v.Required("firstName", p.FirstName, "is required")
	v.Required("lastName", p.LastName, "is required")
	if !core.ValidEmail(p.Email) {
		v.Add("email", "must be a valid email address")
	}
	hireDate, _ := v.Date("hireDate", p.HireDate)

	var dob *time.Time
	if strings.TrimSpace(p.DateOfBirth) != "" {
		if parsed, ok := v.Date("dateOfBirth", p.DateOfBirth); ok {
			dob = &parsed
			if !hireDate.IsZero() && !parsed.Before(hireDate) {
				v.Add("dateOfBirth", "must be before hireDate")
			}
		}
	}
	if p.CURP != "" && !core.ValidCURP(p.CURP) {
		v.Add("curp", "is not a valid CURP")
	}
	if p.RFC != "" && !core.ValidRFC(p.RFC) {
		v.Add("rfc", "is not a valid RFC")
	}
	if p.NSS != "" && !core.ValidNSS(p.NSS) {
		v.Add("nss", "must be 11 digits")
	}
	if p.DailySalary < 0 {
		v.Add("dailySalary", "must not be negative")
	}
	if p.VariableDailyIncome < 0 {
		v.Add("variableDailyIncome", "must not be negative")
	}
	v.Enum("payFrequency", p.PayFrequency, core.PayFrequencies, "must be monthly, biweekly or weekly")
	v.Enum("status", p.Status, core.EmployeeStatuses, "must be active, inactive or terminated")

	qualifications := make([]string, 0, len(p.Qualifications))
	for _, q := range p.Qualifications {
		if q = strings.TrimSpace(q); q != "" {
			qualifications = append(qualifications, q)
		}
	}

	return core.EmployeeInput{
		UserID:              strings.TrimSpace(p.UserID),
		CompanyID:           strings.TrimSpace(p.CompanyID),
		DivisionID:          strings.TrimSpace(p.DivisionID),
		EmployeeNumber:      strings.TrimSpace(p.EmployeeNumber),
		FirstName:           strings.TrimSpace(p.FirstName),
		LastName:            strings.TrimSpace(p.LastName),
		Email:               strings.ToLower(strings.TrimSpace(p.Email)),
		JobTitle:            strings.TrimSpace(p.JobTitle),
		ManagerID:           strings.TrimSpace(p.ManagerID),
		HireDate:            hireDate,
		DateOfBirth:         dob,
		CURP:                core.NormalizeID(p.CURP),
		RFC:                 core.NormalizeID(p.RFC),
		NSS:                 strings.TrimSpace(p.NSS),
		DailySalary:         p.DailySalary,
		VariableDailyIncome: p.VariableDailyIncome,
		PayFrequency:        strings.ToLower(strings.TrimSpace(p.PayFrequency)),
		Qualifications:      qualifications,
		Status:              strings.ToLower(strings.TrimSpace(p.Status)),
	}, v
}
