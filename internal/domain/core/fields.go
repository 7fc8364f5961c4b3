package core

import "hris/internal/domain/auth"

// FilterEmployeeFields blanks sensitive fields the viewer may not see and
// returns the names of the sensitive fields left in the record.
// HR and Admin see everything; an employee sees their own record; managers
// see their reports without identifiers or salary.
func FilterEmployeeFields(emp *Employee, viewer auth.UserContext, isSelf bool) []string {
	if viewer.IsHR() || isSelf {
		return revealedFields(emp)
	}
	emp.CURP = ""
	emp.RFC = ""
	emp.NSS = ""
	emp.DailySalary = nil
	emp.VariableDailyIncome = nil
	emp.DateOfBirth = ""
	return nil
}

func revealedFields(emp *Employee) []string {
	var fields []string
	if emp.CURP != "" {
		fields = append(fields, FieldCURP)
	}
	if emp.RFC != "" {
		fields = append(fields, FieldRFC)
	}
	if emp.NSS != "" {
		fields = append(fields, FieldNSS)
	}
	if emp.DailySalary != nil {
		fields = append(fields, FieldDailySalary)
	}
	return fields
}
