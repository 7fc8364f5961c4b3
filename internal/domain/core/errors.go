package core

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrCompanyNotFound  = errors.New("company not found")
	ErrGroupNotFound    = errors.New("company group not found")
	ErrDivisionNotFound = errors.New("division not found")
	ErrManagerNotFound  = errors.New("manager not found")
	ErrDuplicateCode    = errors.New("code already exists")
	ErrDuplicateEmail   = errors.New("employee email already exists")
	ErrUnknownModule    = errors.New("unknown module")
	ErrAccessDenied     = errors.New("employee access denied")
)
