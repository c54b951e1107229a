// Package config loads and validates the application configuration
// from YAML: cookie policies and their secrets, rate limits, CORS,
// language defaults, and the run mode.
package config
