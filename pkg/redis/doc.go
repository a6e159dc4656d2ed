// Package redis connects to a Redis server with startup retry and exposes
// a health probe. It wraps the go-redis client; callers use the returned
// *redis.Client directly.
package redis
