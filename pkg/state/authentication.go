package state

import (
	"errors"
	"time"
)

// Status is the authentication state of the current request. It is a
// tagged value rather than a boolean so that a pending second factor
// can never be mistaken for a completed login.
type Status int

const (
	// Anonymous means no subject is associated with the request.
	Anonymous Status = iota

	// PendingSecondFactor means the first factor succeeded but the
	// second has not been presented. Downstream gates must treat this
	// exactly like Anonymous.
	PendingSecondFactor

	// Authenticated means the subject completed all required factors.
	Authenticated
)

func (s Status) String() string {
	switch s {
	case PendingSecondFactor:
		return "pending-second-factor"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// ErrNotPending is returned when completing a second factor that was
// never started.
var ErrNotPending = errors.New("state: no second factor pending")

// Authentication carries the principal identity across requests.
type Authentication struct {
	subject   string
	status    Status
	expires   time.Time
	remember  bool
	loggedOut bool
	invalid   bool
	changed   bool
}

// NewAuthentication creates an anonymous authentication with the given
// default expiry.
func NewAuthentication(expires time.Time) *Authentication {
	return &Authentication{expires: expires}
}

// RestoreAuthentication rebuilds authentication state from a decoded
// cookie. Counts as unchanged until mutated.
func RestoreAuthentication(subject string, status Status, remember bool, expires time.Time) *Authentication {
	if subject == "" {
		status = Anonymous
	}
	return &Authentication{
		subject:  subject,
		status:   status,
		remember: remember,
		expires:  expires,
	}
}

// Subject returns the principal identifier, or "" when anonymous.
func (a *Authentication) Subject() string {
	return a.subject
}

// Status returns the tagged authentication status.
func (a *Authentication) Status() Status {
	return a.status
}

// IsAuthenticated reports whether the subject completed every required
// factor and the state is still trustworthy. PendingSecondFactor is
// never authenticated.
func (a *Authentication) IsAuthenticated() bool {
	return a.status == Authenticated && !a.invalid && !a.loggedOut
}

// Login associates a fully authenticated subject.
func (a *Authentication) Login(subject string) {
	a.subject = subject
	a.status = Authenticated
	a.loggedOut = false
	a.changed = true
}

// BeginSecondFactor records a successful first factor for the subject.
// The authentication stays unusable for gates until
// CompleteSecondFactor is called.
func (a *Authentication) BeginSecondFactor(subject string) {
	a.subject = subject
	a.status = PendingSecondFactor
	a.changed = true
}

// CompleteSecondFactor promotes a pending authentication.
func (a *Authentication) CompleteSecondFactor() error {
	if a.status != PendingSecondFactor {
		return ErrNotPending
	}
	a.status = Authenticated
	a.changed = true
	return nil
}

// Logout marks the authentication for removal; the cookie layer clears
// the cookie.
func (a *Authentication) Logout() {
	a.loggedOut = true
	a.changed = true
}

// IsLogout reports whether the subject requested a logout.
func (a *Authentication) IsLogout() bool {
	return a.loggedOut
}

// RememberMe reports whether the subject asked to stay logged in.
func (a *Authentication) RememberMe() bool {
	return a.remember
}

// SetRememberMe toggles the remember-me flag.
func (a *Authentication) SetRememberMe(remember bool) {
	a.remember = remember
	a.changed = true
}

// Expires returns the absolute expiry; zero means session-scoped.
func (a *Authentication) Expires() time.Time {
	return a.expires
}

// SetExpires moves the expiry instant.
func (a *Authentication) SetExpires(t time.Time) {
	a.expires = t
	a.changed = true
}

// HasChanges reports whether the state was mutated since creation or
// restore.
func (a *Authentication) HasChanges() bool {
	return a.changed
}

// Invalidate marks the authentication untrustworthy.
func (a *Authentication) Invalidate() {
	a.invalid = true
}

// IsInvalid reports whether the authentication was invalidated.
func (a *Authentication) IsInvalid() bool {
	return a.invalid
}
