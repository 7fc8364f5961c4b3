package directory

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"
)

var requiredColumns = []string{"email", "firstname", "lastname", "companycode"}

// columnSetters maps a normalized header to the Row field it fills.
var columnSetters = map[string]func(*Row, string){
	"email":          func(r *Row, v string) { r.Email = v },
	"firstname":      func(r *Row, v string) { r.FirstName = v },
	"lastname":       func(r *Row, v string) { r.LastName = v },
	"role":           func(r *Row, v string) { r.Role = v },
	"companycode":    func(r *Row, v string) { r.CompanyCode = v },
	"company":        func(r *Row, v string) { r.CompanyCode = v },
	"groupcode":      func(r *Row, v string) { r.GroupCode = v },
	"divisioncode":   func(r *Row, v string) { r.DivisionCode = v },
	"division":       func(r *Row, v string) { r.DivisionCode = v },
	"employeenumber": func(r *Row, v string) { r.EmployeeNumber = v },
	"jobtitle":       func(r *Row, v string) { r.JobTitle = v },
	"hiredate":       func(r *Row, v string) { r.HireDate = v },
	"dateofbirth":    func(r *Row, v string) { r.DateOfBirth = v },
	"curp":           func(r *Row, v string) { r.CURP = v },
	"rfc":            func(r *Row, v string) { r.RFC = v },
	"nss":            func(r *Row, v string) { r.NSS = v },
	"dailysalary":    func(r *Row, v string) { r.DailySalary = v },
	"payfrequency":   func(r *Row, v string) { r.PayFrequency = v },
	"qualifications": func(r *Row, v string) { r.Qualifications = splitList(v) },
	"manageremail":   func(r *Row, v string) { r.ManagerEmail = v },
}

// normalizeHeader folds "First Name", "first_name" and "first-name" together.
func normalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(header)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == '|' || r == ',' }) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Parse decodes an upload in the given format into rows.
func Parse(format string, data []byte) ([]Row, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return ParseJSON(data)
	case FormatCSV:
		return ParseCSV(bytes.NewReader(data))
	case FormatXLSX:
		return ParseXLSX(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidUpload, ErrUnknownFormat, format)
	}
}

// ParseJSON accepts either a bare array of rows or {"rows": [...]}.
func ParseJSON(data []byte) ([]Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("%w: decode rows: %v", ErrInvalidUpload, err)
		}
		return rows, nil
	}
	var envelope struct {
		Rows []Row `json:"rows"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode rows: %v", ErrInvalidUpload, err)
	}
	return envelope.Rows, nil
}

func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", ErrInvalidUpload, err)
	}
	return rowsFromTable(records)
}

// ParseXLSX reads the first worksheet of the workbook.
func ParseXLSX(r io.Reader) ([]Row, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrInvalidUpload, err)
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpload, ErrEmptyWorksheet)
	}
	records, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read worksheet: %v", ErrInvalidUpload, err)
	}
	return rowsFromTable(records)
}

func rowsFromTable(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpload, ErrEmptyWorksheet)
	}
	header := make([]string, len(records[0]))
	present := map[string]bool{}
	for i, name := range records[0] {
		header[i] = normalizeHeader(strings.TrimPrefix(name, "\ufeff"))
		present[header[i]] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] && !(col == "companycode" && present["company"]) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidUpload, ErrMissingHeader, strings.Join(missing, ", "))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		var row Row
		for i, value := range record {
			if i >= len(header) {
				break
			}
			if set, ok := columnSetters[header[i]]; ok {
				set(&row, strings.TrimSpace(value))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
