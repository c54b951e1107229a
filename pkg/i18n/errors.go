package i18n

import "errors"

// Errors.
var (
	// ErrEmptyLanguage is returned when a default language is missing.
	ErrEmptyLanguage = errors.New("i18n: language must not be empty")

	// ErrInvalidFile is returned when a message file cannot be parsed.
	ErrInvalidFile = errors.New("i18n: invalid message file")
)
