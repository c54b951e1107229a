package internal_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/internal"
	"github.com/strandkit/strand/pkg/cache"
	"github.com/strandkit/strand/pkg/config"
	"github.com/strandkit/strand/pkg/cookie"
	"github.com/strandkit/strand/pkg/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()

	cfg, err := config.Parse(fmt.Appendf(nil, `
mode: %s
session:
  name: app-session
  secret: %q
  lifetime: 1h
authentication:
  name: app-auth
  secret: %q
  lifetime: 1h
flash:
  name: app-flash
  secret: %q
`, mode, testSecret, testSecret, testSecret))
	require.NoError(t, err)
	return cfg
}

func testStore(t *testing.T, cfg *config.Config) *cookie.Store {
	t.Helper()

	codec := func(secret string) token.Codec {
		c, err := token.NewJWT(secret)
		require.NoError(t, err)
		return c
	}

	store, err := cookie.NewStore(
		cookie.Policy{Name: cfg.Session.Name, Codec: codec(cfg.Session.Secret), Lifetime: cfg.Session.Lifetime.Std()},
		cookie.Policy{Name: cfg.Authentication.Name, Codec: codec(cfg.Authentication.Secret), Lifetime: cfg.Authentication.Lifetime.Std()},
		cookie.Policy{Name: cfg.Flash.Name, Codec: codec(cfg.Flash.Secret)},
	)
	require.NoError(t, err)
	return store
}

func testApp(t *testing.T, opts ...internal.AppOption) (*internal.App, *cookie.Store) {
	t.Helper()

	cfg := testConfig(t, config.ModeTest)
	store := testStore(t, cfg)
	return internal.NewApp(cfg, store, opts...), store
}

func do(app *internal.App, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, r)
	return rec
}

func withCookies(r *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" {
			r.AddCookie(c)
		}
	}
	return r
}

func TestServeHandler(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/hello", "Greeter", "hello",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok().WithTextBody("hi")
		}))

	rec := do(app, httptest.NewRequest("GET", "/hello", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "Undisclosed", rec.Header().Get("Server"))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"), "blank baseline value omits the header")
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	rec := do(app, httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestGateOrdering(t *testing.T) {
	t.Parallel()

	authorizerCalled := false
	handlerCalled := false

	app, _ := testApp(t, internal.WithAuthorizer(
		internal.AuthorizerFunc(func(context.Context, string, string, string) (bool, error) {
			authorizerCalled = true
			return true, nil
		})))
	app.Register(internal.NewRoute("GET", "/admin", "Admin", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			handlerCalled = true
			return internal.Ok()
		},
		internal.RequireAuthentication(),
		internal.RequireAuthorization()))

	rec := do(app, httptest.NewRequest("GET", "/admin", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, authorizerCalled, "authorization must not run when authentication already failed")
	assert.False(t, handlerCalled)
}

func TestLoginRedirect(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t, internal.WithLoginRedirect("/login"))
	app.Register(internal.NewRoute("GET", "/account", "Account", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok()
		},
		internal.RequireAuthentication()))

	rec := do(app, httptest.NewRequest("GET", "/account", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func loginCookies(t *testing.T, store *cookie.Store, subject string) *httptest.ResponseRecorder {
	t.Helper()

	auth := store.ReadAuthentication(httptest.NewRequest("GET", "/", nil))
	auth.Login(subject)
	rec := httptest.NewRecorder()
	store.WriteAuthentication(rec, auth)
	return rec
}

func TestAuthenticatedRequestPasses(t *testing.T) {
	t.Parallel()

	app, store := testApp(t)
	app.Register(internal.NewRoute("GET", "/account", "Account", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok().WithTextBody(c.Authentication().Subject())
		},
		internal.RequireAuthentication()))

	login := loginCookies(t, store, "user-1")
	rec := do(app, withCookies(httptest.NewRequest("GET", "/account", nil), login))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestAuthorization(t *testing.T) {
	t.Parallel()

	var gotResource, gotOperation string
	app, store := testApp(t, internal.WithAuthorizer(
		internal.AuthorizerFunc(func(_ context.Context, subject, resource, operation string) (bool, error) {
			gotResource, gotOperation = resource, operation
			return subject == "admin", nil
		})))
	app.Register(internal.NewRoute("GET", "/admin", "Admin", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok()
		},
		internal.RequireAuthentication(),
		internal.RequireAuthorization()))

	t.Run("denied subject gets 401", func(t *testing.T) {
		login := loginCookies(t, store, "user-1")
		rec := do(app, withCookies(httptest.NewRequest("GET", "/admin", nil), login))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("allowed subject passes with derived resource and operation", func(t *testing.T) {
		login := loginCookies(t, store, "admin")
		rec := do(app, withCookies(httptest.NewRequest("GET", "/admin", nil), login))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Admin/index", gotResource)
		assert.Equal(t, "read", gotOperation)
	})
}

func TestAuthorizationRequiresSubject(t *testing.T) {
	t.Parallel()

	authorizerCalled := false
	app, _ := testApp(t, internal.WithAuthorizer(
		internal.AuthorizerFunc(func(context.Context, string, string, string) (bool, error) {
			authorizerCalled = true
			return true, nil
		})))
	app.Register(internal.NewRoute("GET", "/admin", "Admin", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok()
		},
		internal.RequireAuthorization()))

	rec := do(app, httptest.NewRequest("GET", "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, authorizerCalled,
		"a request without a subject must be denied without consulting the authorizer")
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t, internal.WithCounter(cache.NewMemoryCounter()))
	app.Register(internal.NewRoute("GET", "/limited", "Limited", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok()
		},
		internal.WithLimit(2)))

	for i := 0; i < 2; i++ {
		rec := do(app, httptest.NewRequest("GET", "/limited", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(app, httptest.NewRequest("GET", "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Empty(t, rec.Result().Cookies(), "terminal rejection carries no cookie state")
}

func TestRateLimitPerClientHost(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t, internal.WithCounter(cache.NewMemoryCounter()))
	app.Register(internal.NewRoute("GET", "/limited", "Limited", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok()
		},
		internal.WithLimit(1)))

	get := func(forwardedFor string) int {
		r := httptest.NewRequest("GET", "/limited", nil)
		if forwardedFor != "" {
			r.Header.Set("X-Forwarded-For", forwardedFor)
		}
		return do(app, r).Code
	}

	assert.Equal(t, http.StatusOK, get("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, get("203.0.113.7"))

	// A different client host has its own budget for the same URL.
	assert.Equal(t, http.StatusOK, get("203.0.113.8"))

	// Only the first X-Forwarded-For entry identifies the client, so a
	// different proxy chain behind the same host shares the budget.
	assert.Equal(t, http.StatusTooManyRequests, get("203.0.113.7, 10.0.0.1"))
}

func TestSessionAcrossRequests(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("POST", "/remember", "Session", "write",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			c.Session().Put("color", "teal")
			return internal.Ok()
		}))
	app.Register(internal.NewRoute("GET", "/recall", "Session", "read",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok().WithTextBody(c.Session().Get("color"))
		}))

	first := do(app, httptest.NewRequest("POST", "/remember", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := do(app, withCookies(httptest.NewRequest("GET", "/recall", nil), first))
	assert.Equal(t, "teal", second.Body.String())

	assert.Empty(t, second.Result().Cookies(), "an unchanged session writes no cookie")
}

func TestFormParsing(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("POST", "/submit", "Form", "submit",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			f := c.Form()
			return internal.Ok().WithTextBody(fmt.Sprintf("%v|%s|%v",
				f.Submitted(), strings.Join(f.Values("tags"), ","), f.Names()))
		}))

	body := strings.NewReader("name=alice&tags%5B%5D=a&tags%5B%5D=b")
	r := httptest.NewRequest("POST", "/submit", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := do(app, r)
	assert.Equal(t, "true|a,b|[name tags]", rec.Body.String())
}

func TestAuthenticityFilter(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/form", "Form", "show",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			c.Session().Put("seen", "1") // dirty the session so its authenticity travels
			return internal.Ok().WithTextBody(c.Session().Authenticity())
		}))
	app.Register(internal.NewRoute("POST", "/form", "Form", "submit",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok().WithTextBody("accepted")
		},
		internal.WithFilters(internal.AuthenticityFilter())))

	show := do(app, httptest.NewRequest("GET", "/form", nil))
	authenticity := show.Body.String()
	require.NotEmpty(t, authenticity)

	t.Run("missing token rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/form", strings.NewReader("x=1"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := do(app, withCookies(r, show))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("matching token accepted", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/form", strings.NewReader("authenticity="+authenticity))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := do(app, withCookies(r, show))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "accepted", rec.Body.String())
	})
}

func TestGlobalFilterRunsFirst(t *testing.T) {
	t.Parallel()

	var order []string
	app, _ := testApp(t, internal.WithGlobalFilters(func(c *internal.Context) *internal.Response {
		order = append(order, "global")
		return nil
	}))
	app.Register(internal.NewRoute("GET", "/x", "X", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			order = append(order, "handler")
			return internal.Ok()
		},
		internal.WithFilters(func(c *internal.Context) *internal.Response {
			order = append(order, "route")
			return nil
		})))

	do(app, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, []string{"global", "route", "handler"}, order)
}

func TestFilterTerminates(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/blocked", "X", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			t.Error("handler must not run after a terminal filter")
			return internal.Ok()
		},
		internal.WithFilters(func(c *internal.Context) *internal.Response {
			return internal.NewResponse(http.StatusTeapot).WithTextBody("nope")
		})))

	rec := do(app, httptest.NewRequest("GET", "/blocked", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "nope", rec.Body.String())
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/ops", "Ops", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok()
		},
		internal.WithBasicAuth("ops", "hunter2hunter2")))

	t.Run("missing credentials", func(t *testing.T) {
		rec := do(app, httptest.NewRequest("GET", "/ops", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("wrong password", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ops", nil)
		r.SetBasicAuth("ops", "wrong")
		rec := do(app, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid credentials", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ops", nil)
		r.SetBasicAuth("ops", "hunter2hunter2")
		rec := do(app, r)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBindingFailureIs500(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/item/{id}", "Item", "show",
		func(c *internal.Context, args internal.Args) *internal.Response {
			return internal.Ok()
		},
		internal.WithParams(internal.Param{Name: "id", Kind: internal.Int64})))

	rec := do(app, httptest.NewRequest("GET", "/item/not-a-number", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFailResponse(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/denied", "Account", "show",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Fail(internal.ErrForbidden("no access to this account"))
		}))
	app.Register(internal.NewRoute("GET", "/broken", "Account", "edit",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Fail(fmt.Errorf("pq: connection reset"))
		}))

	denied := do(app, httptest.NewRequest("GET", "/denied", nil))
	assert.Equal(t, http.StatusForbidden, denied.Code)
	assert.Equal(t, "no access to this account", denied.Body.String())

	broken := do(app, httptest.NewRequest("GET", "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, broken.Code)
	assert.Equal(t, "Internal Server Error", broken.Body.String(),
		"internal error details must not reach the client")
}

func TestPanicWithHTTPErrorKeepsStatus(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/gone", "Page", "show",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			panic(internal.ErrNotFound("no such page"))
		}))

	rec := do(app, httptest.NewRequest("GET", "/gone", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanicRecovered(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, config.ModeDev)
	store := testStore(t, cfg)
	app := internal.NewApp(cfg, store)
	app.Register(internal.NewRoute("GET", "/boom", "Boom", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			panic("kaboom")
		}))

	rec := do(app, httptest.NewRequest("GET", "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request ID")
	assert.Contains(t, rec.Body.String(), "kaboom")
}

func TestCORSDecoration(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, config.ModeTest)
	cfg.CORS = config.CORSConfig{
		Enabled:     true,
		AllowOrigin: "https://app.example.com",
	}
	app := internal.NewApp(cfg, testStore(t, cfg))
	app.Register(internal.NewRoute("GET", "/api", "API", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok()
		}))

	rec := do(app, httptest.NewRequest("GET", "/api", nil))
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"), "blank CORS value emits no header")
}

func TestCORSURLPattern(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, config.ModeTest)
	cfg.CORS = config.CORSConfig{
		Enabled:     true,
		URLPattern:  "^/api/",
		AllowOrigin: "https://app.example.com",
	}
	app := internal.NewApp(cfg, testStore(t, cfg))
	for _, pattern := range []string{"/api/users", "/web/users"} {
		app.Register(internal.NewRoute("GET", pattern, "API", "index",
			func(c *internal.Context, _ internal.Args) *internal.Response {
				return internal.Ok()
			}))
	}

	matched := do(app, httptest.NewRequest("GET", "/api/users", nil))
	assert.Equal(t, "https://app.example.com", matched.Header().Get("Access-Control-Allow-Origin"))

	unmatched := do(app, httptest.NewRequest("GET", "/web/users", nil))
	assert.Empty(t, unmatched.Header().Get("Access-Control-Allow-Origin"),
		"paths outside the pattern stay undecorated")
}

func TestDefaultLanguageWithoutCatalog(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, config.ModeTest)
	cfg.Language.Default = "de"
	app := internal.NewApp(cfg, testStore(t, cfg))
	app.Register(internal.NewRoute("GET", "/lang", "Lang", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok().WithTextBody(c.Language())
		}))

	rec := do(app, httptest.NewRequest("GET", "/lang", nil))
	assert.Equal(t, "de", rec.Body.String())
}

type fakeEngine struct {
	lastData map[string]any
}

func (f *fakeEngine) Render(w io.Writer, template string, data map[string]any) error {
	f.lastData = data
	_, err := fmt.Fprintf(w, "rendered:%s:%v", template, data["greeting"])
	return err
}

func TestTemplateRendering(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	app, _ := testApp(t, internal.WithTemplateEngine(engine))
	app.Register(internal.NewRoute("GET", "/greet", "Greeter", "hello",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok().WithContent("greeting", "hi")
		}))

	rec := do(app, httptest.NewRequest("GET", "/greet", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rendered:Greeter/hello:hi", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, engine.lastData, "flash")
	assert.Contains(t, engine.lastData, "session")
}

func TestJSONResponse(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/api/user", "API", "user",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok().WithJSONBody(map[string]string{"name": "alice"})
		}))

	rec := do(app, httptest.NewRequest("GET", "/api/user", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"name":"alice"}`, rec.Body.String())
}

func TestInvalidCookieCleared(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t)
	app.Register(internal.NewRoute("GET", "/page", "Page", "index",
		func(c *internal.Context, _ internal.Args) *internal.Response {
			return internal.Ok()
		}))

	r := httptest.NewRequest("GET", "/page", nil)
	r.AddCookie(&http.Cookie{Name: "app-session", Value: "garbage"})

	rec := do(app, r)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "app-session" && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "an undecodable inbound cookie must be cleared")
}
