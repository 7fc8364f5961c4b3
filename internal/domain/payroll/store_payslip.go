package payroll

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) PayslipPDFData(ctx context.Context, tenantID, payslipID string) (PayslipPDFData, error) {
	var data PayslipPDFData
	err := s.DB.QueryRow(ctx, `
    SELECT ps.id, c.name, e.first_name, e.last_name, e.email,
           p.period_type, p.start_date, p.end_date,
           r.gross, r.isr, r.imss_employee, r.net, r.breakdown_json
    FROM payslips ps
    JOIN payroll_results r ON r.id = ps.result_id
    JOIN employees e ON e.id = ps.employee_id
    JOIN payroll_periods p ON p.id = ps.period_id
    JOIN companies c ON c.id = p.company_id
    WHERE ps.tenant_id = $1 AND ps.id = $2
  `, tenantID, payslipID).Scan(&data.PayslipID, &data.CompanyName, &data.FirstName, &data.LastName, &data.Email,
		&data.PeriodType, &data.StartDate, &data.EndDate,
		&data.Gross, &data.ISR, &data.IMSSEmployee, &data.Net, &data.Breakdown)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayslipPDFData{}, ErrPayslipNotFound
	}
	if err != nil {
		return PayslipPDFData{}, err
	}
	return data, nil
}
