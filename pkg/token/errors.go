package token

import "errors"

// ErrNoSecret is returned when a codec is constructed without a secret.
// Decode never returns errors; it reports ok=false instead.
var ErrNoSecret = errors.New("token: secret required")
