package directory

import "errors"

var (
	ErrNoRows         = errors.New("no rows to import")
	ErrInvalidUpload  = errors.New("invalid upload")
	ErrTooManyRows    = errors.New("too many rows")
	ErrUnknownFormat  = errors.New("unknown import format")
	ErrMissingHeader  = errors.New("missing required column")
	ErrDuplicateUser  = errors.New("user already exists")
	ErrEmptyWorksheet = errors.New("worksheet is empty")
)
