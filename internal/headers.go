package internal

import (
	"net/http"

	"github.com/strandkit/strand/pkg/config"
)

// applyBaselineHeaders writes the security header baseline onto the
// response. A blank configured value omits the header entirely.
func applyBaselineHeaders(h http.Header, cfg config.HeadersConfig) {
	set := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}
	set("X-Content-Type-Options", cfg.ContentTypeOptions)
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-XSS-Protection", cfg.XSSProtection)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Server", cfg.Server)
}
