package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Response is what a controller action or filter produces. It is a
// builder: construction never writes to the wire, emission happens
// once the pipeline finishes.
type Response struct {
	status   int
	headers  http.Header
	body     []byte
	content  map[string]any
	template string
	redirect string
	rendered bool
}

// NewResponse creates a response with the given status.
func NewResponse(status int) *Response {
	return &Response{
		status:   status,
		headers:  http.Header{},
		content:  map[string]any{},
		rendered: true,
	}
}

// Ok creates a 200 response.
func Ok() *Response {
	return NewResponse(http.StatusOK)
}

// Redirect creates a 302 response to the given location. Redirects are
// never template-rendered.
func Redirect(location string) *Response {
	r := NewResponse(http.StatusFound)
	r.redirect = location
	r.rendered = false
	return r
}

// Fail builds the response for a failed action. An *HTTPError anywhere
// in the chain supplies the status and the user-facing message; any
// other error becomes a generic 500 so internal details never leak to
// the client.
func Fail(err error) *Response {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return NewResponse(httpErr.Code).WithTextBody(httpErr.Message)
	}
	return NewResponse(http.StatusInternalServerError).WithTextBody("Internal Server Error")
}

// WithStatus overrides the status code.
func (r *Response) WithStatus(status int) *Response {
	r.status = status
	return r
}

// WithHeader sets a response header.
func (r *Response) WithHeader(name, value string) *Response {
	r.headers.Set(name, value)
	return r
}

// WithContent adds a value to the template data.
func (r *Response) WithContent(key string, value any) *Response {
	r.content[key] = value
	return r
}

// WithTemplate overrides the template path derived from the route.
func (r *Response) WithTemplate(template string) *Response {
	r.template = template
	return r
}

// WithTextBody sets a plain text body and disables template rendering.
func (r *Response) WithTextBody(body string) *Response {
	r.body = []byte(body)
	r.rendered = false
	if r.headers.Get("Content-Type") == "" {
		r.headers.Set("Content-Type", "text/plain; charset=utf-8")
	}
	return r
}

// WithHTMLBody sets a pre-rendered HTML body.
func (r *Response) WithHTMLBody(body string) *Response {
	r.body = []byte(body)
	r.rendered = false
	r.headers.Set("Content-Type", "text/html; charset=utf-8")
	return r
}

// WithJSONBody marshals v as the body. A marshal failure degrades to a
// 500 with an empty object, it never panics mid-pipeline.
func (r *Response) WithJSONBody(v any) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		r.status = http.StatusInternalServerError
		data = []byte("{}")
	}
	r.body = data
	r.rendered = false
	r.headers.Set("Content-Type", "application/json")
	return r
}

// WithBinaryBody sets a download body served as an attachment.
func (r *Response) WithBinaryBody(filename string, data []byte) *Response {
	r.body = data
	r.rendered = false
	r.headers.Set("Content-Type", "application/octet-stream")
	r.headers.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return r
}

// Status returns the status code.
func (r *Response) Status() int {
	return r.status
}

// Header returns a response header value.
func (r *Response) Header(name string) string {
	return r.headers.Get(name)
}

// Content returns the template data map.
func (r *Response) Content() map[string]any {
	return r.content
}

// Template returns the template override, or "".
func (r *Response) Template() string {
	return r.template
}

// Body returns the raw body.
func (r *Response) Body() []byte {
	return r.body
}

// IsRedirect reports whether the response is a redirect.
func (r *Response) IsRedirect() bool {
	return r.redirect != ""
}

// Location returns the redirect target, or "".
func (r *Response) Location() string {
	return r.redirect
}

// Rendered reports whether the body comes from a template.
func (r *Response) Rendered() bool {
	return r.rendered
}
