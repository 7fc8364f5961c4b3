package statutory

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PayrollInput struct {
	DailySalary         float64    `json:"dailySalary"`
	VariableDailyIncome float64    `json:"variableDailyIncome"`
	PeriodType          PeriodType `json:"periodType"`
	YearsOfService      int        `json:"yearsOfService"`
	ExemptIncome        float64    `json:"exemptIncome"`
	ApplySubsidy        bool       `json:"applySubsidy"`
	RiskClass           string     `json:"riskClass"`
	RiskPremium         *float64   `json:"riskPremium"`
	StateCode           string     `json:"stateCode"`
}

func (in PayrollInput) Validate() error {
	if in.DailySalary <= 0 {
		return invalid("dailySalary", "must be greater than zero")
	}
	if in.VariableDailyIncome < 0 {
		return invalid("variableDailyIncome", "must not be negative")
	}
	if in.ExemptIncome < 0 {
		return invalid("exemptIncome", "must not be negative")
	}
	if in.YearsOfService < 0 {
		return invalid("yearsOfService", "must not be negative")
	}
	if _, err := ParsePeriodType(string(in.PeriodType)); err != nil {
		return err
	}
	return nil
}

type PayrollResult struct {
	Year         int        `json:"year"`
	PeriodType   PeriodType `json:"periodType"`
	PayDays      float64    `json:"payDays"`
	Gross        float64    `json:"gross"`
	SDI          SDIResult  `json:"sdi"`
	ISR          ISRResult  `json:"isr"`
	IMSS         IMSSResult `json:"imss"`
	ISN          *ISNResult `json:"isn,omitempty"`
	Deductions   float64    `json:"deductions"`
	Net          float64    `json:"net"`
	EmployerCost float64    `json:"employerCost"`
	Warnings     []string   `json:"warnings"`
}

// CalculatePayroll chains SDI, ISR, IMSS and, when a state is given, ISN for one
// employee and period.
func CalculatePayroll(tables TableSet, in PayrollInput) (PayrollResult, error) {
	if err := in.Validate(); err != nil {
		return PayrollResult{}, err
	}
	period, _ := ParsePeriodType(string(in.PeriodType))
	payDays := period.PayDays()
	gross := dec(in.DailySalary).Add(dec(in.VariableDailyIncome)).Mul(payDays).Round(2)

	warnings := make([]string, 0, 2)
	if in.DailySalary < tables.Values.MinimumWage {
		warnings = append(warnings, "daily salary is below the general minimum wage")
	}

	sdi, err := CalculateSDI(tables, SDIInput{
		DailySalary:         in.DailySalary,
		YearsOfService:      in.YearsOfService,
		VariableDailyIncome: in.VariableDailyIncome,
	})
	if err != nil {
		return PayrollResult{}, err
	}
	if sdi.CapApplied {
		warnings = append(warnings, "contribution base capped at 25 UMA")
	}

	exempt := in.ExemptIncome
	if exempt >= money(gross) {
		return PayrollResult{}, invalid("exemptIncome", "must be less than the period gross")
	}
	isr, err := CalculateISR(tables, ISRInput{
		GrossIncome:  money(gross),
		ExemptIncome: exempt,
		PeriodType:   period,
		ApplySubsidy: in.ApplySubsidy,
	})
	if err != nil {
		return PayrollResult{}, err
	}

	imss, err := CalculateIMSS(tables, IMSSInput{
		SBC:         sdi.SBCCapped,
		PeriodType:  period,
		RiskClass:   in.RiskClass,
		RiskPremium: in.RiskPremium,
	})
	if err != nil {
		return PayrollResult{}, err
	}

	var isn *ISNResult
	employerCost := gross.Add(dec(imss.EmployerTotal))
	if strings.TrimSpace(in.StateCode) != "" {
		result, err := CalculateISN(tables, ISNInput{TaxablePayroll: money(gross), StateCode: in.StateCode})
		if err != nil {
			return PayrollResult{}, err
		}
		isn = &result
		employerCost = employerCost.Add(dec(result.ISN))
	}

	deductions := dec(isr.ISR).Add(dec(imss.EmployeeTotal))
	net := gross.Sub(deductions)

	return PayrollResult{
		Year:         tables.Year,
		PeriodType:   period,
		PayDays:      payDays.InexactFloat64(),
		Gross:        money(gross),
		SDI:          sdi,
		ISR:          isr,
		IMSS:         imss,
		ISN:          isn,
		Deductions:   money(deductions),
		Net:          money(net),
		EmployerCost: money(employerCost),
		Warnings:     warnings,
	}, nil
}

// Sum adds rounded amounts without float drift.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, value := range values {
		total = total.Add(dec(value))
	}
	return money(total)
}
