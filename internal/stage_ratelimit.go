package internal

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/strandkit/strand/pkg/cache"
)

// rateLimitStage counts requests per client and path and rejects with
// 429 once the route's budget is spent. The rejection is terminal: it
// happens before cookie state exists.
type rateLimitStage struct {
	counter  cache.Counter
	requests int64
	window   time.Duration
	logger   *slog.Logger
}

func newRateLimitStage(counter cache.Counter, requests int64, window time.Duration, logger *slog.Logger) *rateLimitStage {
	return &rateLimitStage{counter: counter, requests: requests, window: window, logger: logger}
}

func (s *rateLimitStage) Name() string { return "ratelimit" }

func (s *rateLimitStage) Process(c *Context) Outcome {
	budget := s.requests
	if c.Route().Limit > 0 {
		budget = c.Route().Limit
	}
	if s.counter == nil || budget <= 0 {
		return Proceed()
	}

	key := limitKey(c.Request())
	count, err := s.counter.Increment(c.Context(), key, s.window)
	if err != nil {
		// A broken counter must not take the site down.
		s.logger.ErrorContext(c.Context(), "rate limit counter failed", slog.Any("error", err))
		return Proceed()
	}

	if count > budget {
		s.logger.WarnContext(c.Context(), "rate limit exceeded",
			slog.String("key", key),
			slog.Int64("count", count),
			slog.Int64("budget", budget))
		return Terminate(NewResponse(http.StatusTooManyRequests).
			WithHeader("Retry-After", strconv.FormatInt(int64(s.window.Seconds()), 10)).
			WithTextBody("Too Many Requests"))
	}

	return Proceed()
}

// limitKey identifies a client and path: the lowercased request path
// plus the lowercased client host, taken from the first entry of
// X-Forwarded-For when present, the socket address otherwise.
func limitKey(r *http.Request) string {
	host := r.RemoteAddr
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		host, _, _ = strings.Cut(fwd, ",")
	}
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(r.URL.Path) + strings.ToLower(host)
}
