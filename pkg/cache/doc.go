// Package cache provides the key-value and counter primitives the
// request pipeline leans on: a TTL cache for computed artifacts such as
// parsed message catalogs, and a windowed counter for per-client rate
// limiting.
//
// Both come in an in-memory flavor for single-process deployments and a
// Redis flavor for fleets that need shared counters.
package cache
