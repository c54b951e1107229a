package config

import "errors"

// Errors.
var (
	// ErrShortSecret is returned when a cookie secret or sign key is
	// shorter than the required minimum.
	ErrShortSecret = errors.New("config: secret must be at least 32 characters")

	// ErrBadEncryptionKey is returned when an encryption key is set but
	// too short.
	ErrBadEncryptionKey = errors.New("config: encryption key must be at least 32 characters")

	// ErrUnknownMode is returned for a mode other than dev, test, or prod.
	ErrUnknownMode = errors.New("config: unknown mode")

	// ErrNoCookieName is returned when a cookie section has no name.
	ErrNoCookieName = errors.New("config: cookie name must not be empty")

	// ErrBadCORSPattern is returned when the CORS URL pattern does not
	// compile as a regular expression.
	ErrBadCORSPattern = errors.New("config: invalid cors url pattern")
)
