package cookie

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/strandkit/strand/pkg/state"
	"github.com/strandkit/strand/pkg/token"
)

// Claim keys used inside authentication and flash tokens.
const (
	claimTwoFactor = "two_factor_pending"
	claimRemember  = "remember_me"
	claimForm      = "form"
)

// flashLifetime bounds how long a flash cookie stays decodable. Flash
// is consumed on the very next request, so a minute is plenty.
const flashLifetime = time.Minute

// Policy configures one cookie kind.
type Policy struct {
	// Name is the cookie name.
	Name string

	// Codec encodes and decodes the cookie value.
	Codec token.Codec

	// Lifetime is the default lifetime of fresh state. Zero means
	// session-scoped: no fixed expiry inside the token.
	Lifetime time.Duration

	// Persistent also sets the expiry on the cookie itself, so the
	// user agent keeps it across restarts.
	Persistent bool
}

func (p Policy) validate() error {
	if p.Name == "" {
		return ErrNoName
	}
	if p.Codec == nil {
		return ErrNoCodec
	}
	return nil
}

// Store reads and writes the three state kinds.
type Store struct {
	session          Policy
	authentication   Policy
	flash            Policy
	rememberLifetime time.Duration
	logger           *slog.Logger
	now              func() time.Time
	newAuthenticity  func() string
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for decode failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRememberLifetime sets the extended authentication lifetime
// applied when the subject opted into remember-me.
func WithRememberLifetime(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.rememberLifetime = d
		}
	}
}

// NewStore creates a Store from the three kind policies.
func NewStore(session, authentication, flash Policy, opts ...Option) (*Store, error) {
	for _, p := range []Policy{session, authentication, flash} {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}

	s := &Store{
		session:          session,
		authentication:   authentication,
		flash:            flash,
		rememberLifetime: 30 * 24 * time.Hour,
		logger:           slog.Default(),
		now:              time.Now,
		newAuthenticity:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ReadSession returns the inbound session, or a fresh one. The fresh
// session is marked invalid when a cookie was present but did not
// decode, so the stale cookie gets cleared on the way out.
func (s *Store) ReadSession(r *http.Request) *state.Session {
	fresh := state.NewSession(s.newAuthenticity(), s.expiry(s.session.Lifetime))

	value := cookieValue(r, s.session.Name)
	if value == "" {
		return fresh
	}

	tok, ok := s.session.Codec.Decode(value)
	if !ok {
		s.logger.Error("failed to decode session cookie", slog.String("cookie", s.session.Name))
		fresh.Invalidate()
		return fresh
	}

	return state.RestoreSession(tok.Claims, tok.Authenticity, tok.Expiry)
}

// ReadAuthentication returns the inbound authentication, or a fresh
// anonymous one.
func (s *Store) ReadAuthentication(r *http.Request) *state.Authentication {
	fresh := state.NewAuthentication(s.expiry(s.authentication.Lifetime))

	value := cookieValue(r, s.authentication.Name)
	if value == "" {
		return fresh
	}

	tok, ok := s.authentication.Codec.Decode(value)
	if !ok {
		s.logger.Error("failed to decode authentication cookie", slog.String("cookie", s.authentication.Name))
		fresh.Invalidate()
		return fresh
	}

	status := state.Authenticated
	if tok.Claims[claimTwoFactor] == "true" {
		status = state.PendingSecondFactor
	}

	return state.RestoreAuthentication(tok.Subject, status, tok.Claims[claimRemember] == "true", tok.Expiry)
}

// ReadFlash returns the inbound flash and, when a validation-failed
// form was kept across the redirect, the restored form.
func (s *Store) ReadFlash(r *http.Request) (*state.Flash, *state.Form) {
	value := cookieValue(r, s.flash.Name)
	if value == "" {
		return state.NewFlash(), nil
	}

	tok, ok := s.flash.Codec.Decode(value)
	if !ok {
		s.logger.Error("failed to decode flash cookie", slog.String("cookie", s.flash.Name))
		flash := state.NewFlash()
		flash.Invalidate()
		return flash, nil
	}

	var form *state.Form
	if encoded := tok.Claims[claimForm]; encoded != "" {
		form, _ = state.DecodeForm(encoded)
		delete(tok.Claims, claimForm)
	}

	return state.RestoreFlash(tok.Claims, form), form
}

// WriteSession applies the three-way write decision for the session.
func (s *Store) WriteSession(w http.ResponseWriter, sess *state.Session) {
	switch {
	case sess.IsInvalid():
		s.clear(w, s.session)
	case sess.HasChanges():
		raw, err := s.session.Codec.Encode(token.Token{
			Claims:       sess.Values(),
			Authenticity: sess.Authenticity(),
			Expiry:       sess.Expires(),
		})
		if err != nil {
			s.logger.Error("failed to encode session cookie", slog.Any("error", err))
			return
		}
		s.set(w, s.session, raw, sess.Expires())
	default:
		// Unchanged: no Set-Cookie header at all.
	}
}

// WriteAuthentication applies the three-way write decision for the
// authentication.
func (s *Store) WriteAuthentication(w http.ResponseWriter, auth *state.Authentication) {
	switch {
	case auth.IsInvalid() || auth.IsLogout():
		s.clear(w, s.authentication)
	case auth.HasChanges() && auth.Subject() != "":
		expires := auth.Expires()
		if auth.RememberMe() {
			expires = s.now().Add(s.rememberLifetime)
		}

		claims := map[string]string{}
		if auth.Status() == state.PendingSecondFactor {
			claims[claimTwoFactor] = "true"
		}
		if auth.RememberMe() {
			claims[claimRemember] = "true"
		}

		raw, err := s.authentication.Codec.Encode(token.Token{
			Claims:  claims,
			Subject: auth.Subject(),
			Expiry:  expires,
		})
		if err != nil {
			s.logger.Error("failed to encode authentication cookie", slog.Any("error", err))
			return
		}
		s.set(w, s.authentication, raw, expires)
	default:
	}
}

// WriteFlash applies the three-way write decision for the flash. New
// values or a kept form win over discard, so a flash consumed and
// refilled in the same request still reaches the client.
func (s *Store) WriteFlash(w http.ResponseWriter, flash *state.Flash, form *state.Form) {
	kept := form != nil && form.IsKept()

	switch {
	case flash.IsInvalid():
		s.clear(w, s.flash)
	case flash.HasChanges() || kept:
		expires := s.now().Add(flashLifetime)
		claims := flash.Values()
		if kept {
			encoded, err := form.Encode()
			if err != nil {
				s.logger.Error("failed to encode kept form", slog.Any("error", err))
			} else {
				claims[claimForm] = encoded
			}
		}

		raw, err := s.flash.Codec.Encode(token.Token{Claims: claims, Expiry: expires})
		if err != nil {
			s.logger.Error("failed to encode flash cookie", slog.Any("error", err))
			return
		}
		s.set(w, s.flash, raw, expires)
	case flash.IsDiscard():
		s.clear(w, s.flash)
	default:
	}
}

func (s *Store) expiry(lifetime time.Duration) time.Time {
	if lifetime <= 0 {
		return time.Time{}
	}
	return s.now().Add(lifetime)
}

func (s *Store) set(w http.ResponseWriter, p Policy, value string, expires time.Time) {
	c := baseCookie(p.Name, value)
	if p.Persistent && !expires.IsZero() {
		c.Expires = expires
		c.MaxAge = int(expires.Sub(s.now()) / time.Second)
	}
	http.SetCookie(w, c)
}

func (s *Store) clear(w http.ResponseWriter, p Policy) {
	c := baseCookie(p.Name, "")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

// baseCookie applies the fixed attribute set. Secure, HttpOnly, and
// SameSite=Strict are always on.
func baseCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
