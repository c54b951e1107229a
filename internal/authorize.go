package internal

import (
	"context"
	"net/http"
)

// Authorizer decides whether a subject may perform an operation on a
// resource. The authorization gate fails closed: an error counts as a
// denial.
type Authorizer interface {
	Authorize(ctx context.Context, subject, resource, operation string) (bool, error)
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, subject, resource, operation string) (bool, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, subject, resource, operation string) (bool, error) {
	return f(ctx, subject, resource, operation)
}

// operationFor maps the HTTP method to the authorization operation:
// safe methods read, everything else writes.
func operationFor(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	default:
		return "write"
	}
}
