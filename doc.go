// Package strand is a cookie-state web framework core: every request
// runs a fixed pipeline of stages (CORS decoration, rate limiting,
// locale resolution, cookie decoding, authentication and authorization
// gates, form parsing, filters, dispatch), and all per-client state
// travels in signed, optionally encrypted cookies. The server keeps
// nothing in memory between requests.
package strand
