package payroll

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"hris/internal/domain/payroll/statutory"
)

// resultFromCalculation flattens a statutory breakdown into the stored row.
// ISN is an employer tax and never reduces net pay.
func resultFromCalculation(employeeID string, calc statutory.PayrollResult) (ResultInput, error) {
	breakdown, err := json.Marshal(calc)
	if err != nil {
		return ResultInput{}, fmt.Errorf("encode breakdown: %w", err)
	}
	isn := 0.0
	if calc.ISN != nil {
		isn = calc.ISN.ISN
	}
	warnings := append([]string(nil), calc.Warnings...)
	if calc.Net < 0 {
		warnings = append(warnings, WarningNegativeNet)
	}
	return ResultInput{
		EmployeeID:   employeeID,
		Gross:        calc.Gross,
		ISR:          calc.ISR.ISR,
		IMSSEmployee: calc.IMSS.EmployeeTotal,
		IMSSEmployer: calc.IMSS.EmployerTotal,
		ISN:          isn,
		Net:          calc.Net,
		Breakdown:    breakdown,
		Warnings:     warnings,
	}, nil
}

// summarize totals a run in decimal so cents do not drift across employees.
func summarize(periodID string, taxYear int, results []ResultInput, skipped []SkippedEmployee) RunSummary {
	gross, deductions, net, employer := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	warnings := map[string]int{}
	for _, r := range results {
		gross = gross.Add(decimal.NewFromFloat(r.Gross))
		deductions = deductions.Add(decimal.NewFromFloat(r.ISR)).Add(decimal.NewFromFloat(r.IMSSEmployee))
		net = net.Add(decimal.NewFromFloat(r.Net))
		employer = employer.Add(decimal.NewFromFloat(r.Gross)).
			Add(decimal.NewFromFloat(r.IMSSEmployer)).
			Add(decimal.NewFromFloat(r.ISN))
		for _, w := range r.Warnings {
			warnings[w]++
		}
	}
	if skipped == nil {
		skipped = []SkippedEmployee{}
	}
	return RunSummary{
		PeriodID:          periodID,
		Status:            PeriodStatusReviewed,
		TaxYear:           taxYear,
		EmployeeCount:     len(results),
		TotalGross:        gross.Round(2).InexactFloat64(),
		TotalDeductions:   deductions.Round(2).InexactFloat64(),
		TotalNet:          net.Round(2).InexactFloat64(),
		TotalEmployerCost: employer.Round(2).InexactFloat64(),
		Warnings:          warnings,
		Skipped:           skipped,
	}
}
