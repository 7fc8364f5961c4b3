package notifications

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoRecipients         = errors.New("at least one recipient is required")
	ErrSubjectRequired      = errors.New("subject is required")
)
