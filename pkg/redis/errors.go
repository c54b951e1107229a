package redis

import "errors"

// Errors.
var (
	// ErrEmptyURL is returned when no connection URL is given.
	ErrEmptyURL = errors.New("redis: connection URL is empty")

	// ErrBadURL is returned when the URL does not parse or has an
	// unsupported scheme.
	ErrBadURL = errors.New("redis: invalid connection URL")

	// ErrConnectionFailed is returned when all connection attempts fail.
	ErrConnectionFailed = errors.New("redis: connection failed")
)
