// Package state holds the per-request security state carried between
// requests inside cookies: Session, Authentication, Flash, and Form.
//
// Every request starts with default-constructed, empty instances. The
// cookie layer replaces them when an inbound cookie decodes
// successfully; a decode failure leaves the defaults in place and marks
// the state invalid so the stale cookie is cleared, never trusted.
//
// All four types track a changed flag. The cookie layer uses it for the
// three-way write decision: invalid state clears the cookie, changed
// state re-emits it, untouched state emits nothing.
package state
