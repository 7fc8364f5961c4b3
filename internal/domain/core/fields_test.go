package core

import (
	"testing"

	"hris/internal/domain/auth"
)

func sampleEmployee() Employee {
	salary := 500.0
	return Employee{
		ID:          "e1",
		CURP:        "GOMA800101HDFRRN09",
		RFC:         "GOMA800101AB1",
		NSS:         "12345678901",
		DailySalary: &salary,
		DateOfBirth: "1980-01-01",
	}
}

func TestFilterEmployeeFieldsHRSeesAll(t *testing.T) {
	emp := sampleEmployee()
	fields := FilterEmployeeFields(&emp, auth.UserContext{RoleName: auth.RoleHR}, false)
	if len(fields) != 4 {
		t.Fatalf("expected 4 revealed fields, got %v", fields)
	}
	if emp.DailySalary == nil || emp.CURP == "" {
		t.Fatal("expected HR to keep sensitive fields")
	}
}

func TestFilterEmployeeFieldsSelf(t *testing.T) {
	emp := sampleEmployee()
	fields := FilterEmployeeFields(&emp, auth.UserContext{RoleName: auth.RoleEmployee}, true)
	if len(fields) != 4 || emp.NSS == "" {
		t.Fatalf("expected self to see own record, got %v", fields)
	}
}

func TestFilterEmployeeFieldsManagerHidesIdentifiers(t *testing.T) {
	emp := sampleEmployee()
	fields := FilterEmployeeFields(&emp, auth.UserContext{RoleName: auth.RoleManager}, false)
	if fields != nil {
		t.Fatalf("expected no revealed fields, got %v", fields)
	}
	if emp.CURP != "" || emp.RFC != "" || emp.NSS != "" || emp.DailySalary != nil || emp.DateOfBirth != "" {
		t.Fatalf("expected sensitive fields cleared, got %+v", emp)
	}
}
