package internal

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// basicAuthGate guards routes that declare basic auth credentials. The
// rejection is terminal; a probe gets no cookie state back.
type basicAuthGate struct{}

func (basicAuthGate) Name() string { return "basicauth" }

func (basicAuthGate) Process(c *Context) Outcome {
	route := c.Route()
	if route.BasicAuthUser == "" || route.BasicAuthPassword == "" {
		return Proceed()
	}

	user, pass, ok := c.Request().BasicAuth()
	if ok &&
		subtle.ConstantTimeCompare([]byte(user), []byte(route.BasicAuthUser)) == 1 &&
		subtle.ConstantTimeCompare([]byte(pass), []byte(route.BasicAuthPassword)) == 1 {
		return Proceed()
	}

	return Terminate(NewResponse(http.StatusUnauthorized).
		WithHeader("WWW-Authenticate", `Basic realm="restricted"`).
		WithTextBody("Unauthorized"))
}

// authenticationGate enforces a valid, fully authenticated subject on
// routes that require one. A pending second factor does not pass.
//
// The rejection is deliberately non-terminal so an invalid inbound
// authentication cookie still gets cleared on the way out.
type authenticationGate struct {
	// redirect, when set, sends unauthenticated requests to the login
	// page instead of answering 403.
	redirect string
	logger   *slog.Logger
}

func newAuthenticationGate(redirect string, logger *slog.Logger) *authenticationGate {
	return &authenticationGate{redirect: redirect, logger: logger}
}

func (s *authenticationGate) Name() string { return "authentication" }

func (s *authenticationGate) Process(c *Context) Outcome {
	if !c.Route().RequiresAuthentication {
		return Proceed()
	}
	if c.Authentication().IsAuthenticated() {
		return Proceed()
	}

	s.logger.InfoContext(c.Context(), "authentication required",
		slog.String("path", c.Request().URL.Path))

	if s.redirect != "" {
		return Complete(Redirect(s.redirect))
	}
	return Complete(NewResponse(http.StatusForbidden).WithTextBody("Forbidden"))
}

// authorizationGate consults the authorizer for routes that require
// it. The resource is the route's controller/action pair, the
// operation derives from the HTTP method. Fails closed with 401.
type authorizationGate struct {
	authorizer Authorizer
	logger     *slog.Logger
}

func newAuthorizationGate(authorizer Authorizer, logger *slog.Logger) *authorizationGate {
	return &authorizationGate{authorizer: authorizer, logger: logger}
}

func (s *authorizationGate) Name() string { return "authorization" }

func (s *authorizationGate) Process(c *Context) Outcome {
	if !c.Route().RequiresAuthorization {
		return Proceed()
	}

	deny := func() Outcome {
		return Complete(NewResponse(http.StatusUnauthorized).WithTextBody("Unauthorized"))
	}

	if s.authorizer == nil {
		s.logger.ErrorContext(c.Context(), "route requires authorization but no authorizer is configured",
			slog.String("path", c.Request().URL.Path))
		return deny()
	}

	subject := c.Authentication().Subject()
	if subject == "" {
		// No subject means there is nothing to authorize; the
		// authorizer is never consulted for anonymous requests.
		s.logger.InfoContext(c.Context(), "authorization denied for missing subject",
			slog.String("path", c.Request().URL.Path))
		return deny()
	}

	resource := c.Route().Controller + "/" + c.Route().Action
	operation := operationFor(c.Request().Method)

	allowed, err := s.authorizer.Authorize(c.Context(), subject, resource, operation)
	if err != nil {
		s.logger.ErrorContext(c.Context(), "authorization check failed",
			slog.String("resource", resource),
			slog.Any("error", err))
		return deny()
	}
	if !allowed {
		s.logger.InfoContext(c.Context(), "authorization denied",
			slog.String("subject", subject),
			slog.String("resource", resource),
			slog.String("operation", operation))
		return deny()
	}
	return Proceed()
}
