// Package logger builds the application's slog loggers: human-readable
// text in dev mode, JSON in prod, optionally fanned out to Sentry.
// Context extractors pull request-scoped attributes (request id,
// resolved language) into every record logged with a request context.
package logger
