package internal

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/strandkit/strand/pkg/cache"
	"github.com/strandkit/strand/pkg/config"
	"github.com/strandkit/strand/pkg/cookie"
	"github.com/strandkit/strand/pkg/i18n"
	"github.com/strandkit/strand/pkg/logger"
)

// App owns the route table and drives the pipeline for every request.
type App struct {
	cfg    *config.Config
	mux    *chi.Mux
	store  *cookie.Store
	logger *slog.Logger

	catalog    *i18n.Catalog
	counter    cache.Counter
	authorizer Authorizer
	engine     TemplateEngine
	filters    []Filter

	loginRedirect string

	stages []Stage
}

// AppOption configures the App.
type AppOption func(*App)

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCatalog enables language negotiation against the catalog.
func WithCatalog(c *i18n.Catalog) AppOption {
	return func(a *App) {
		a.catalog = c
	}
}

// WithCounter enables rate limiting backed by the counter.
func WithCounter(c cache.Counter) AppOption {
	return func(a *App) {
		a.counter = c
	}
}

// WithAuthorizer sets the authorizer consulted by gated routes.
func WithAuthorizer(az Authorizer) AppOption {
	return func(a *App) {
		a.authorizer = az
	}
}

// WithTemplateEngine sets the engine rendering template responses.
func WithTemplateEngine(e TemplateEngine) AppOption {
	return func(a *App) {
		a.engine = e
	}
}

// WithGlobalFilters prepends filters to every route's chain.
func WithGlobalFilters(filters ...Filter) AppOption {
	return func(a *App) {
		a.filters = append(a.filters, filters...)
	}
}

// WithLoginRedirect sends unauthenticated requests on gated routes to
// the given location instead of answering 403.
func WithLoginRedirect(location string) AppOption {
	return func(a *App) {
		a.loginRedirect = location
	}
}

// NewApp assembles the pipeline.
func NewApp(cfg *config.Config, store *cookie.Store, opts ...AppOption) *App {
	a := &App{
		cfg:    cfg,
		mux:    chi.NewRouter(),
		store:  store,
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.stages = []Stage{
		newCORSStage(cfg.CORS),
		newRateLimitStage(a.counter, cfg.Limit.Requests, cfg.Limit.Window.Std(), a.logger),
		newLocaleStage(a.catalog, cfg.Language.Default),
		newCookieDecodeStage(store),
		basicAuthGate{},
		newAuthenticationGate(a.loginRedirect, a.logger),
		newAuthorizationGate(a.authorizer, a.logger),
		newFormParseStage(a.logger),
		newDispatchStage(a.filters, a.logger),
	}

	a.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp := errorResponse(cfg.IsDev(), http.StatusNotFound, "", nil)
		applyBaselineHeaders(w.Header(), *cfg.Headers)
		a.writeResponse(w, resp)
	})

	return a
}

// Register adds a route to the table.
func (a *App) Register(route *Route) {
	a.mux.MethodFunc(route.Method, route.Pattern, func(w http.ResponseWriter, r *http.Request) {
		a.serve(w, r, route)
	})
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *App) serve(w http.ResponseWriter, r *http.Request, route *Route) {
	requestID := uuid.NewString()
	c := newContext(r, route, requestID, a.logger)
	start := time.Now()

	status := http.StatusInternalServerError
	defer func() {
		if rec := recover(); rec != nil {
			err := panicError(rec)
			a.logger.ErrorContext(c.Context(), "panic in request pipeline",
				slog.Any("panic", rec),
				slog.String("path", r.URL.Path))

			// An HTTPError escaping the action keeps its status; any
			// other panic value is a plain 500.
			code := http.StatusInternalServerError
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				code = httpErr.Code
			}

			resp := errorResponse(a.cfg.IsDev(), code, requestID, err)
			a.emit(w, c, resp, true)
			status = resp.Status()
		}
		a.logger.InfoContext(c.Context(), "request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)))
	}()

	for _, stage := range a.stages {
		outcome := stage.Process(c)
		if outcome.Response != nil {
			a.emit(w, c, outcome.Response, outcome.Terminal)
			status = outcome.Response.Status()
			return
		}
	}

	// The dispatch stage always completes, so reaching here means a
	// stage list without it.
	resp := errorResponse(a.cfg.IsDev(), http.StatusInternalServerError, requestID, nil)
	a.emit(w, c, resp, true)
}

// emit writes the response: baseline headers, stage decorations,
// cookie encoding (unless terminal), template rendering, then the
// body.
func (a *App) emit(w http.ResponseWriter, c *Context, resp *Response, terminal bool) {
	h := w.Header()
	applyBaselineHeaders(h, *a.cfg.Headers)
	for name, values := range c.respHeaders {
		h[name] = values
	}

	if !terminal {
		if c.session != nil {
			a.store.WriteSession(w, c.session)
		}
		if c.authentication != nil {
			a.store.WriteAuthentication(w, c.authentication)
		}
		if c.flash != nil {
			a.store.WriteFlash(w, c.flash, c.form)
		}
	}

	if resp.IsRedirect() {
		for name, values := range resp.headers {
			h[name] = values
		}
		h.Set("Location", resp.Location())
		w.WriteHeader(resp.Status())
		return
	}

	if resp.Rendered() {
		a.render(c, resp)
	}

	a.writeResponse(w, resp)
}

// render fills the response body from its template. A render failure
// degrades to the error page body with a 500.
func (a *App) render(c *Context, resp *Response) {
	if a.engine == nil {
		resp.rendered = false
		return
	}

	path := resp.Template()
	if path == "" {
		path = c.Route().TemplatePath()
	}

	data := make(map[string]any, len(resp.content)+4)
	for k, v := range resp.content {
		data[k] = v
	}
	data["flash"] = c.flash
	data["session"] = c.session
	data["messages"] = c.messages
	data["language"] = c.language

	var buf bytes.Buffer
	if err := a.engine.Render(&buf, path, data); err != nil {
		a.logger.ErrorContext(c.Context(), "template rendering failed",
			slog.String("template", path),
			slog.Any("error", err))
		failure := errorResponse(a.cfg.IsDev(), http.StatusInternalServerError, c.RequestID(), err)
		resp.status = failure.status
		resp.body = failure.body
		resp.headers.Set("Content-Type", "text/html; charset=utf-8")
		resp.rendered = false
		return
	}

	resp.body = buf.Bytes()
	resp.headers.Set("Content-Type", "text/html; charset=utf-8")
	resp.rendered = false
}

func (a *App) writeResponse(w http.ResponseWriter, resp *Response) {
	for name, values := range resp.headers {
		w.Header()[name] = values
	}
	w.WriteHeader(resp.Status())
	_, _ = w.Write(resp.Body())
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", rec)
}
