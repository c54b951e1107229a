// Package redis opens the Redis connection backing the shared rate
// limit counter and cache in multi-process deployments. Connection
// attempts retry with linear backoff so a fleet restart does not race
// the Redis container coming up.
package redis
