// Package internal holds the request pipeline: the ordered stages every
// request passes through, the per-request context they share, route
// registration with its parameter binding tables, and response
// emission.
//
// The stage order is fixed: CORS decoration, rate limiting, locale
// resolution, cookie decoding, the authentication and authorization
// gates, form parsing, and finally the filter chain and dispatch. A
// stage may terminate the request with a response of its own; a
// terminal response is emitted directly and skips cookie encoding.
package internal
