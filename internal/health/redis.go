// Package health provides readiness checks for the API's external dependencies.
package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker reports whether the rate-limit/idempotency Redis is reachable.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker wraps an existing Redis client.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// HealthCheck sends a PING, honoring the caller's deadline.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
