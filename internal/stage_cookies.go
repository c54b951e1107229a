package internal

import "github.com/strandkit/strand/pkg/cookie"

// cookieDecodeStage turns inbound cookies into the request's session,
// authentication, and flash. It never terminates: an undecodable
// cookie yields a fresh invalidated state that the encode side clears.
type cookieDecodeStage struct {
	store *cookie.Store
}

func newCookieDecodeStage(store *cookie.Store) *cookieDecodeStage {
	return &cookieDecodeStage{store: store}
}

func (s *cookieDecodeStage) Name() string { return "cookies" }

func (s *cookieDecodeStage) Process(c *Context) Outcome {
	r := c.Request()
	c.session = s.store.ReadSession(r)
	c.authentication = s.store.ReadAuthentication(r)

	flash, keptForm := s.store.ReadFlash(r)
	c.flash = flash
	if keptForm != nil {
		// A form kept across a redirect replaces the empty default so
		// the re-rendered page sees the failed submission.
		c.form = keptForm
	}
	return Proceed()
}
