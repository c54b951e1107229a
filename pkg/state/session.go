package state

import (
	"strings"
	"time"
)

// reservedCharacters cannot appear in claim keys or values because the
// legacy cookie wire format uses them as delimiters. Offending entries
// are silently rejected, not errors.
const reservedCharacters = "|#&:"

func storable(s string) bool {
	return !strings.ContainsAny(s, reservedCharacters)
}

// Session is the claims map bound to one browser, plus the authenticity
// token used to detect cross-site form replay.
type Session struct {
	values       map[string]string
	authenticity string
	expires      time.Time
	changed      bool
	invalid      bool
}

// NewSession creates an empty session with the given authenticity token
// and absolute expiry. A zero expiry makes the session cookie
// session-scoped.
func NewSession(authenticity string, expires time.Time) *Session {
	return &Session{
		values:       map[string]string{},
		authenticity: authenticity,
		expires:      expires,
	}
}

// RestoreSession rebuilds a session from a decoded cookie. The restored
// session counts as unchanged until mutated.
func RestoreSession(values map[string]string, authenticity string, expires time.Time) *Session {
	if values == nil {
		values = map[string]string{}
	}
	return &Session{
		values:       values,
		authenticity: authenticity,
		expires:      expires,
	}
}

// Get retrieves a value. Returns "" if absent.
func (s *Session) Get(key string) string {
	return s.values[key]
}

// Has reports whether a key is present.
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Put stores a value, overwriting an existing one. Keys or values
// containing reserved delimiter characters are dropped silently.
func (s *Session) Put(key, value string) {
	if !storable(key) || !storable(value) {
		return
	}
	s.values[key] = value
	s.changed = true
}

// Remove deletes a key. A miss does not mark the session changed.
func (s *Session) Remove(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.changed = true
	}
}

// Clear drops all values.
func (s *Session) Clear() {
	if len(s.values) == 0 {
		return
	}
	s.values = map[string]string{}
	s.changed = true
}

// Values returns a copy of all session values.
func (s *Session) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// HasContent reports whether the session holds at least one value.
func (s *Session) HasContent() bool {
	return len(s.values) > 0
}

// Authenticity returns the CSRF authenticity token.
func (s *Session) Authenticity() string {
	return s.authenticity
}

// RotateAuthenticity replaces the authenticity token. Done after login
// to prevent session fixation.
func (s *Session) RotateAuthenticity(token string) {
	s.authenticity = token
	s.changed = true
}

// Expires returns the absolute expiry; zero means session-scoped.
func (s *Session) Expires() time.Time {
	return s.expires
}

// SetExpires moves the expiry instant.
func (s *Session) SetExpires(t time.Time) {
	s.expires = t
	s.changed = true
}

// HasChanges reports whether the session was mutated since creation or
// restore.
func (s *Session) HasChanges() bool {
	return s.changed
}

// Invalidate marks the session invalid; the cookie layer answers with
// an immediately-expiring cookie.
func (s *Session) Invalidate() {
	s.invalid = true
}

// IsInvalid reports whether the session was invalidated, either
// explicitly or because the inbound cookie failed to decode.
func (s *Session) IsInvalid() bool {
	return s.invalid
}
