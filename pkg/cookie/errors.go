package cookie

import "errors"

// Errors.
var (
	// ErrNoName is returned when a policy is missing its cookie name.
	ErrNoName = errors.New("cookie: policy requires a name")

	// ErrNoCodec is returned when a policy is missing its token codec.
	ErrNoCodec = errors.New("cookie: policy requires a codec")
)
