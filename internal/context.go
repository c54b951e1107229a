package internal

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strandkit/strand/pkg/i18n"
	"github.com/strandkit/strand/pkg/state"
)

// RequestIDKey is the context key holding the request id.
type RequestIDKey struct{}

// RequestIDExtractor surfaces the request id on every log record
// carrying a request context.
func RequestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id, ok := ctx.Value(RequestIDKey{}).(string)
	return slog.String("request_id", id), ok
}

// Context is the per-request carrier shared by all pipeline stages,
// filters, and the controller action. Stages populate it as the
// request moves down the chain.
type Context struct {
	request   *http.Request
	route     *Route
	requestID string
	logger    *slog.Logger

	session        *state.Session
	authentication *state.Authentication
	flash          *state.Flash
	form           *state.Form
	messages       *i18n.Messages
	language       string

	respHeaders http.Header
	attachments map[string]any
}

func newContext(r *http.Request, route *Route, requestID string, logger *slog.Logger) *Context {
	r = r.WithContext(context.WithValue(r.Context(), RequestIDKey{}, requestID))
	return &Context{
		request:     r,
		route:       route,
		requestID:   requestID,
		logger:      logger,
		form:        state.NewForm(),
		respHeaders: http.Header{},
	}
}

// Request returns the underlying request.
func (c *Context) Request() *http.Request {
	return c.request
}

// Context returns the request context.
func (c *Context) Context() context.Context {
	return c.request.Context()
}

// RequestID returns the request id.
func (c *Context) RequestID() string {
	return c.requestID
}

// Route returns the matched route.
func (c *Context) Route() *Route {
	return c.route
}

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Param returns a URL parameter value, or "".
func (c *Context) Param(name string) string {
	return chi.URLParam(c.request, name)
}

// Query returns a query parameter value, or "".
func (c *Context) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

// QueryDefault returns a query parameter value or a default.
func (c *Context) QueryDefault(name, fallback string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return fallback
}

// Header returns a request header value.
func (c *Context) Header(name string) string {
	return c.request.Header.Get(name)
}

// Session returns the request session. Never nil once the cookie
// decode stage has run.
func (c *Context) Session() *state.Session {
	return c.session
}

// Authentication returns the request authentication. Never nil once
// the cookie decode stage has run.
func (c *Context) Authentication() *state.Authentication {
	return c.authentication
}

// Flash returns the request flash. Never nil once the cookie decode
// stage has run.
func (c *Context) Flash() *state.Flash {
	return c.flash
}

// Form returns the parsed form. Empty and unsubmitted unless the form
// parse stage found a body.
func (c *Context) Form() *state.Form {
	return c.form
}

// Messages returns the message view for the negotiated language, or
// nil when no catalog is configured.
func (c *Context) Messages() *i18n.Messages {
	return c.messages
}

// Language returns the negotiated request language, or "".
func (c *Context) Language() string {
	return c.language
}

// SetResponseHeader sets a header on the eventual response, whichever
// stage ends up producing it.
func (c *Context) SetResponseHeader(name, value string) {
	c.respHeaders.Set(name, value)
}

// Attach stores an arbitrary value on the request, typically by a
// filter for the action to pick up.
func (c *Context) Attach(key string, value any) {
	if c.attachments == nil {
		c.attachments = map[string]any{}
	}
	c.attachments[key] = value
}

// Attachment retrieves a value stored with Attach.
func (c *Context) Attachment(key string) (any, bool) {
	v, ok := c.attachments[key]
	return v, ok
}
