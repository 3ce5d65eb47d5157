package idempotency

import (
	"log/slog"
	"time"
)

// DefaultExpiry is how long a stored key remains valid. A retry arriving
// after this window is treated as a fresh request.
const DefaultExpiry = 24 * time.Hour

// CleanupOldKeys deletes keys older than expiry and reports how many were
// removed. Keys accumulate one per guarded write, so without periodic
// cleanup the store grows without bound.
func CleanupOldKeys(repo Repository, expiry time.Duration) (int64, error) {
	deleted, err := repo.DeleteOlderThan(expiry)
	if err != nil {
		slog.Error("failed to cleanup old idempotency keys", "error", err)
		return 0, err
	}

	if deleted > 0 {
		slog.Info("cleaned up old idempotency keys", "deleted", deleted, "older_than", expiry)
	}

	return deleted, nil
}

// RunPeriodicCleanup sweeps the repository once immediately and then on
// every tick of interval until stopChan is closed. It blocks, so run it in
// a goroutine:
//
//	stopChan := make(chan struct{})
//	go idempotency.RunPeriodicCleanup(repo, time.Hour, idempotency.DefaultExpiry, stopChan)
//	defer close(stopChan)
func RunPeriodicCleanup(repo Repository, interval time.Duration, expiry time.Duration, stopChan <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := CleanupOldKeys(repo, expiry); err != nil {
		slog.Error("initial cleanup failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := CleanupOldKeys(repo, expiry); err != nil {
				slog.Error("periodic cleanup failed", "error", err)
			}
		case <-stopChan:
			slog.Info("stopping periodic cleanup")
			return
		}
	}
}
