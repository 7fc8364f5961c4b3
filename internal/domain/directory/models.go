package directory

// Row is one user to import. Dates are YYYY-MM-DD; the salary is a decimal string.
type Row struct {
	Email          string   `json:"email"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Role           string   `json:"role"`
	CompanyCode    string   `json:"companyCode"`
	GroupCode      string   `json:"groupCode,omitempty"`
	DivisionCode   string   `json:"divisionCode,omitempty"`
	EmployeeNumber string   `json:"employeeNumber,omitempty"`
	JobTitle       string   `json:"jobTitle,omitempty"`
	HireDate       string   `json:"hireDate"`
	DateOfBirth    string   `json:"dateOfBirth,omitempty"`
	CURP           string   `json:"curp,omitempty"`
	RFC            string   `json:"rfc,omitempty"`
	NSS            string   `json:"nss,omitempty"`
	DailySalary    string   `json:"dailySalary"`
	PayFrequency   string   `json:"payFrequency,omitempty"`
	Qualifications []string `json:"qualifications,omitempty"`
	ManagerEmail   string   `json:"managerEmail,omitempty"`
}

type RowResult struct {
	Row               int    `json:"row"`
	Email             string `json:"email"`
	Status            string `json:"status"`
	Reason            string `json:"reason,omitempty"`
	UserID            string `json:"userId,omitempty"`
	EmployeeID        string `json:"employeeId,omitempty"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

// Options.Justifications overrides warning-severity hiring rules by rule id.
type Options struct {
	DryRun         bool              `json:"dryRun"`
	SendInvites    bool              `json:"sendInvites"`
	Justifications map[string]string `json:"justifications,omitempty"`
}

type Summary struct {
	Total   int         `json:"total"`
	Created int         `json:"created"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	DryRun  bool        `json:"dryRun"`
	Results []RowResult `json:"results"`
}

// Lookup is the tenant reference data every row is resolved against. Codes,
// role names and emails are keyed lower-cased; CompanyGroups maps a company id
// to its group id.
type Lookup struct {
	Companies      map[string]string
	CompanyGroups  map[string]string
	Groups         map[string]string
	Divisions      map[string]string
	Roles          map[string]string
	UserEmails     map[string]bool
	EmployeeEmails map[string]string
}

func divisionKey(companyID, code string) string {
	return companyID + "/" + code
}

// NewUser is one user plus employee pair written in a single transaction.
type NewUser struct {
	Email        string
	PasswordHash string
	RoleID       string
}
