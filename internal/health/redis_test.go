package health

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisChecker(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	checker := NewRedisChecker(client)
	if checker == nil {
		t.Fatal("NewRedisChecker returned nil")
	}
	if checker.client != client {
		t.Error("checker should hold the client it was given")
	}
}

func TestRedisChecker_CancelledContext(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	checker := NewRedisChecker(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With a cancelled context the ping must fail fast instead of waiting
	// on a connection attempt.
	if err := checker.HealthCheck(ctx); err == nil {
		t.Error("expected an error from HealthCheck with a cancelled context")
	}
}
