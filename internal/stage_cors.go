package internal

import (
	"regexp"

	"github.com/strandkit/strand/pkg/config"
)

// corsStage decorates the eventual response with the configured CORS
// headers, optionally limited to paths matching the configured
// pattern. It never terminates a request.
type corsStage struct {
	cfg     config.CORSConfig
	pattern *regexp.Regexp
}

func newCORSStage(cfg config.CORSConfig) *corsStage {
	s := &corsStage{cfg: cfg}
	if cfg.URLPattern != "" {
		// Compilation is checked at config load; a pattern that still
		// fails here decorates nothing rather than everything.
		s.pattern, _ = regexp.Compile(cfg.URLPattern)
		if s.pattern == nil {
			s.cfg.Enabled = false
		}
	}
	return s
}

func (s *corsStage) Name() string { return "cors" }

func (s *corsStage) Process(c *Context) Outcome {
	if !s.cfg.Enabled {
		return Proceed()
	}
	if s.pattern != nil && !s.pattern.MatchString(c.Request().URL.Path) {
		return Proceed()
	}

	set := func(name, value string) {
		if value != "" {
			c.SetResponseHeader(name, value)
		}
	}
	set("Access-Control-Allow-Origin", s.cfg.AllowOrigin)
	set("Access-Control-Allow-Methods", s.cfg.AllowMethods)
	set("Access-Control-Allow-Headers", s.cfg.AllowHeaders)
	set("Access-Control-Expose-Headers", s.cfg.ExposeHeaders)
	set("Access-Control-Max-Age", s.cfg.MaxAge)
	if s.cfg.AllowCredentials {
		c.SetResponseHeader("Access-Control-Allow-Credentials", "true")
	}

	return Proceed()
}
