package internal

// HandlerFunc is a controller action: it receives the request context
// and its bound arguments and produces a response.
type HandlerFunc func(c *Context, args Args) *Response

// Filter runs before the action. Returning a non-nil response stops
// the chain and becomes the request's response.
type Filter func(c *Context) *Response

// Route describes one registered endpoint. Its binding table is built
// once, at registration.
type Route struct {
	Method     string
	Pattern    string
	Controller string
	Action     string
	Handler    HandlerFunc

	// Params declares the arguments the handler expects.
	Params []Param

	// RequiresAuthentication makes the authentication gate enforce a
	// valid authenticated subject.
	RequiresAuthentication bool

	// RequiresAuthorization makes the authorization gate consult the
	// configured authorizer.
	RequiresAuthorization bool

	// Limit overrides the app-wide rate limit budget. Zero keeps the
	// default.
	Limit int64

	// BasicAuthUser and BasicAuthPassword guard the route with HTTP
	// basic auth when both are set.
	BasicAuthUser     string
	BasicAuthPassword string

	// Filters run after the gates and before the action, in order.
	Filters []Filter

	// Template overrides the template path derived from
	// controller/action.
	Template string

	binder *Binder
}

// RouteOption configures a route at registration.
type RouteOption func(*Route)

// WithParams declares the handler's arguments.
func WithParams(params ...Param) RouteOption {
	return func(r *Route) {
		r.Params = params
	}
}

// RequireAuthentication gates the route behind a valid authentication.
func RequireAuthentication() RouteOption {
	return func(r *Route) {
		r.RequiresAuthentication = true
	}
}

// RequireAuthorization gates the route behind the authorizer.
func RequireAuthorization() RouteOption {
	return func(r *Route) {
		r.RequiresAuthorization = true
	}
}

// WithLimit overrides the rate limit budget for this route.
func WithLimit(n int64) RouteOption {
	return func(r *Route) {
		r.Limit = n
	}
}

// WithBasicAuth guards the route with HTTP basic auth.
func WithBasicAuth(user, password string) RouteOption {
	return func(r *Route) {
		r.BasicAuthUser = user
		r.BasicAuthPassword = password
	}
}

// WithFilters appends route filters.
func WithFilters(filters ...Filter) RouteOption {
	return func(r *Route) {
		r.Filters = append(r.Filters, filters...)
	}
}

// WithTemplate overrides the derived template path.
func WithTemplate(template string) RouteOption {
	return func(r *Route) {
		r.Template = template
	}
}

// NewRoute creates a route and builds its binding table.
func NewRoute(method, pattern, controller, action string, handler HandlerFunc, opts ...RouteOption) *Route {
	r := &Route{
		Method:     method,
		Pattern:    pattern,
		Controller: controller,
		Action:     action,
		Handler:    handler,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.binder = NewBinder(r.Params)
	return r
}

// TemplatePath returns the template this route renders by default:
// the override when set, otherwise "Controller/action".
func (r *Route) TemplatePath() string {
	if r.Template != "" {
		return r.Template
	}
	return r.Controller + "/" + r.Action
}
