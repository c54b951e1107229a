package strand

import (
	"github.com/strandkit/strand/internal"
	"github.com/strandkit/strand/pkg/config"
	"github.com/strandkit/strand/pkg/cookie"
	"github.com/strandkit/strand/pkg/token"
)

// Type aliases - public API
type (
	// App owns the route table and drives the request pipeline.
	App = internal.App

	// AppOption configures the App.
	AppOption = internal.AppOption

	// Context is the per-request carrier shared by stages, filters,
	// and controller actions.
	Context = internal.Context

	// Response is the controller's result, built fluently and emitted
	// once the pipeline finishes.
	Response = internal.Response

	// Route describes one registered endpoint.
	Route = internal.Route

	// RouteOption configures a route at registration.
	RouteOption = internal.RouteOption

	// HandlerFunc is a controller action.
	HandlerFunc = internal.HandlerFunc

	// Filter runs before the action and may short-circuit it.
	Filter = internal.Filter

	// Args holds a route's bound argument values.
	Args = internal.Args

	// Param declares one handler argument.
	Param = internal.Param

	// Kind enumerates the bindable parameter types.
	Kind = internal.Kind

	// Authorizer decides whether a subject may perform an operation on
	// a resource.
	Authorizer = internal.Authorizer

	// AuthorizerFunc adapts a function to Authorizer.
	AuthorizerFunc = internal.AuthorizerFunc

	// TemplateEngine renders template responses.
	TemplateEngine = internal.TemplateEngine

	// HTTPError carries an HTTP status through error returns.
	HTTPError = internal.HTTPError

	// Config is the application configuration.
	Config = config.Config
)

// Parameter kinds.
const (
	String          = internal.String
	Int             = internal.Int
	Int64           = internal.Int64
	Float64         = internal.Float64
	Bool            = internal.Bool
	Time            = internal.Time
	OptionalString  = internal.OptionalString
	OptionalInt     = internal.OptionalInt
	OptionalInt64   = internal.OptionalInt64
	OptionalFloat64 = internal.OptionalFloat64
	OptionalBool    = internal.OptionalBool
	OptionalTime    = internal.OptionalTime
)

// Route registration and responses.
var (
	NewRoute    = internal.NewRoute
	NewResponse = internal.NewResponse
	Ok          = internal.Ok
	Redirect    = internal.Redirect
	Fail        = internal.Fail
)

// Error constructors.
var (
	NewHTTPError       = internal.NewHTTPError
	ErrBadRequest      = internal.ErrBadRequest
	ErrUnauthorized    = internal.ErrUnauthorized
	ErrForbidden       = internal.ErrForbidden
	ErrNotFound        = internal.ErrNotFound
	ErrTooManyRequests = internal.ErrTooManyRequests
	ErrInternal        = internal.ErrInternal
)

// Route options.
var (
	WithParams            = internal.WithParams
	RequireAuthentication = internal.RequireAuthentication
	RequireAuthorization  = internal.RequireAuthorization
	WithLimit             = internal.WithLimit
	WithBasicAuth         = internal.WithBasicAuth
	WithFilters           = internal.WithFilters
	WithTemplate          = internal.WithTemplate
)

// App options.
var (
	WithLogger         = internal.WithLogger
	WithCatalog        = internal.WithCatalog
	WithCounter        = internal.WithCounter
	WithAuthorizer     = internal.WithAuthorizer
	WithTemplateEngine = internal.WithTemplateEngine
	WithGlobalFilters  = internal.WithGlobalFilters
	WithLoginRedirect  = internal.WithLoginRedirect
)

// Filters.
var AuthenticityFilter = internal.AuthenticityFilter

// Config loading.
var (
	LoadConfig  = config.Load
	ParseConfig = config.Parse
)

// New assembles an App from its configuration: one token codec per
// cookie kind, the cookie store, and the pipeline.
func New(cfg *config.Config, opts ...AppOption) (*App, error) {
	sessionCodec, err := newCodec(cfg.Session)
	if err != nil {
		return nil, err
	}
	authCodec, err := newCodec(cfg.Authentication)
	if err != nil {
		return nil, err
	}
	flashCodec, err := newCodec(cfg.Flash)
	if err != nil {
		return nil, err
	}

	store, err := cookie.NewStore(
		policyFor(cfg.Session, sessionCodec),
		policyFor(cfg.Authentication, authCodec),
		policyFor(cfg.Flash, flashCodec),
		cookie.WithRememberLifetime(cfg.RememberLifetime.Std()),
	)
	if err != nil {
		return nil, err
	}

	return internal.NewApp(cfg, store, opts...), nil
}

func newCodec(cc config.CookieConfig) (token.Codec, error) {
	var opts []token.Option
	if cc.Leeway > 0 {
		opts = append(opts, token.WithLeeway(cc.Leeway.Std()))
	}
	if cc.EncryptionKey != "" {
		opts = append(opts, token.WithEncryption(cc.EncryptionKey))
	}

	if cc.Format == "legacy" {
		signKey := cc.SignKey
		if signKey == "" {
			signKey = cc.Secret
		}
		codec, err := token.NewLegacy(cc.Secret, signKey, opts...)
		if err != nil {
			return nil, err
		}
		return codec, nil
	}

	codec, err := token.NewJWT(cc.Secret, opts...)
	if err != nil {
		return nil, err
	}
	return codec, nil
}

func policyFor(cc config.CookieConfig, codec token.Codec) cookie.Policy {
	return cookie.Policy{
		Name:       cc.Name,
		Codec:      codec,
		Lifetime:   cc.Lifetime.Std(),
		Persistent: cc.Persistent,
	}
}
