package token

import "time"

// Token is the decoded payload carried by a state cookie.
type Token struct {
	// Claims holds the key-value payload (session data, flash messages).
	Claims map[string]string

	// Subject identifies the authenticated principal. Empty = anonymous.
	Subject string

	// Authenticity is the random value bound to a session for CSRF checks.
	Authenticity string

	// Expiry is the absolute expiry instant. The zero value means
	// session-scoped: the token never expires on its own and lives as
	// long as the user agent keeps the cookie.
	Expiry time.Time
}

// Codec turns a Token into a compact, tamper-evident string and back.
//
// Encode is deterministic for a given Token and configuration (modulo
// the random nonce when encryption is enabled). Decode reports ok=false
// on any failure: bad signature, failed decryption, malformed structure,
// or an expiry in the past. It never panics and never returns an error,
// so callers degrade to an empty state instead of failing the request.
type Codec interface {
	Encode(t Token) (string, error)
	Decode(raw string) (Token, bool)
}

type options struct {
	now           func() time.Time
	issuer        string
	audience      string
	encryptionKey []byte
	leeway        time.Duration
}

func defaultOptions() options {
	return options{now: time.Now}
}

// Option configures a codec.
type Option func(*options)

// WithEncryption enables AES-256-GCM encryption of the whole token.
// The key is run through SHA-256, so any non-empty string works.
func WithEncryption(key string) Option {
	return func(o *options) {
		if key != "" {
			o.encryptionKey = []byte(key)
		}
	}
}

// WithLeeway sets the tolerance applied to time-based checks during
// decoding. It compensates for clock skew between processes; keep it in
// the tens of seconds.
func WithLeeway(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.leeway = d
		}
	}
}

// WithIssuer pins the iss claim on JWT tokens.
func WithIssuer(issuer string) Option {
	return func(o *options) {
		o.issuer = issuer
	}
}

// WithAudience pins the aud claim on JWT tokens. Conventionally the
// cookie name, so a session token is never accepted as an
// authentication token.
func WithAudience(audience string) Option {
	return func(o *options) {
		o.audience = audience
	}
}

// WithClock overrides the time source. Used in tests to simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
