package directory

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSVNormalizesHeaders(t *testing.T) {
	data := "Email,First Name,last_name,Company-Code,Hire Date,Daily Salary,Qualifications\n" +
		"ana@example.com,Ana,López,ACME,2024-01-15,650.50,First Aid; Forklift\n" +
		",,,,,,\n"

	rows, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ana@example.com", rows[0].Email)
	assert.Equal(t, "López", rows[0].LastName)
	assert.Equal(t, "ACME", rows[0].CompanyCode)
	assert.Equal(t, "650.50", rows[0].DailySalary)
	assert.Equal(t, []string{"First Aid", "Forklift"}, rows[0].Qualifications)
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("email,first name\nana@example.com,Ana\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidUpload))
	assert.True(t, errors.Is(err, ErrMissingHeader))
	assert.Contains(t, err.Error(), "lastname")
}

func TestParseJSONAcceptsArrayAndEnvelope(t *testing.T) {
	rows, err := ParseJSON([]byte(`[{"email":"a@x.mx","firstName":"A"}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = ParseJSON([]byte(`{"rows":[{"email":"a@x.mx"},{"email":"b@x.mx"}]}`))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = ParseJSON([]byte(`{"rows":`))
	assert.ErrorIs(t, err, ErrInvalidUpload)
}

func TestParseXLSXFirstSheet(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"email", "firstName", "lastName", "companyCode", "managerEmail"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"luis@example.com", "Luis", "Pérez", "ACME", "ana@example.com"}))
	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))

	rows, err := Parse(FormatXLSX, buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Pérez", rows[0].LastName)
	assert.Equal(t, "ana@example.com", rows[0].ManagerEmail)
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse("ods", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
