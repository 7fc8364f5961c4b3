package payroll

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jung-kurt/gofpdf"

	"hris/internal/domain/payroll/statutory"
	"hris/internal/platform/localdate"
)

func RenderPayslip(data PayslipPDFData) ([]byte, error) {
	var breakdown statutory.PayrollResult
	if len(data.Breakdown) > 0 {
		if err := json.Unmarshal(data.Breakdown, &breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Payslip "+data.PayslipID, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(data.CompanyName))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Employee: %s %s", data.FirstName, data.LastName)))
	pdf.Ln(6)
	pdf.Cell(0, 7, tr("Email: "+data.Email))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period (%s): %s to %s", data.PeriodType,
		localdate.ToDateString(data.StartDate), localdate.ToDateString(data.EndDate)))
	pdf.Ln(10)

	line := func(label string, amount float64) {
		pdf.CellFormat(120, 7, tr(label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, fmt.Sprintf("%.2f MXN", amount), "B", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	line("Gross pay", data.Gross)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Deductions")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	if breakdown.ISR.Subsidy > 0 {
		line("ISR determined", breakdown.ISR.DeterminedTax)
		line("Employment subsidy", -breakdown.ISR.Subsidy)
	}
	line("ISR withheld", data.ISR)
	for _, imss := range breakdown.IMSS.Lines {
		if imss.Employee > 0 {
			line("IMSS "+imss.Name, imss.Employee)
		}
	}
	line("IMSS employee total", data.IMSSEmployee)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	line("Net pay", data.Net)

	if breakdown.SDI.SBCCapped > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 9)
		pdf.Cell(0, 6, fmt.Sprintf("Integrated daily salary (SBC): %.2f", breakdown.SDI.SBCCapped))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
