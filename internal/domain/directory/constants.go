package directory

const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	EntityUser = "user"

	// PolicyContextHiring is evaluated for every imported row.
	PolicyContextHiring = "hiring"

	DefaultMaxRows = 500
)
