package health

import (
	"context"
	"database/sql"
)

// DBChecker reports whether the visits database is reachable.
type DBChecker struct {
	pool *sql.DB
}

// NewDBChecker wraps an existing connection pool.
func NewDBChecker(pool *sql.DB) *DBChecker {
	return &DBChecker{pool: pool}
}

// HealthCheck pings the database, honoring the caller's deadline.
func (c *DBChecker) HealthCheck(ctx context.Context) error {
	return c.pool.PingContext(ctx)
}
