package internal

import (
	"crypto/subtle"
	"net/http"
)

// authenticityField is the form field and query parameter carrying the
// anti-forgery token.
const authenticityField = "authenticity"

// AuthenticityFilter rejects state-changing requests whose authenticity
// token does not match the session's. Attach it to routes serving form
// submissions.
func AuthenticityFilter() Filter {
	return func(c *Context) *Response {
		switch c.Request().Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return nil
		}

		token := c.Form().Value(authenticityField)
		if token == "" {
			token = c.Query(authenticityField)
		}

		expected := c.Session().Authenticity()
		if expected != "" && token != "" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1 {
			return nil
		}
		return NewResponse(http.StatusForbidden).WithTextBody("Invalid authenticity token")
	}
}
