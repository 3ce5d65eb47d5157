package idempotency

import (
	"testing"
	"time"
)

func TestCleanupOldKeys(t *testing.T) {
	repo := NewInMemoryRepository()

	stale := visitKey("stale-visit-create", "visit-1")
	stale.CreatedAt = time.Now().Add(-25 * time.Hour)
	fresh := visitKey("fresh-visit-create", "visit-2")
	fresh.CreatedAt = time.Now().Add(-1 * time.Hour)

	if err := repo.Store(stale); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := repo.Store(fresh); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	deleted, err := CleanupOldKeys(repo, DefaultExpiry)
	if err != nil {
		t.Fatalf("CleanupOldKeys() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("CleanupOldKeys() deleted = %d, want 1", deleted)
	}

	if _, err := repo.Get("stale-visit-create"); err != ErrKeyNotFound {
		t.Errorf("Get() stale key error = %v, want %v", err, ErrKeyNotFound)
	}
	if _, err := repo.Get("fresh-visit-create"); err != nil {
		t.Errorf("Get() fresh key error = %v, want nil", err)
	}
}

func TestCleanupOldKeys_EmptyRepository(t *testing.T) {
	repo := NewInMemoryRepository()

	deleted, err := CleanupOldKeys(repo, DefaultExpiry)
	if err != nil {
		t.Fatalf("CleanupOldKeys() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("CleanupOldKeys() deleted = %d, want 0", deleted)
	}
}

func TestRunPeriodicCleanup_Stop(t *testing.T) {
	repo := NewInMemoryRepository()

	stale := visitKey("stale-visit-create", "visit-1")
	stale.CreatedAt = time.Now().Add(-25 * time.Hour)
	if err := repo.Store(stale); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	stopChan := make(chan struct{})
	done := make(chan struct{})
	go func() {
		RunPeriodicCleanup(repo, 100*time.Millisecond, DefaultExpiry, stopChan)
		close(done)
	}()

	// Give the first sweep time to run.
	time.Sleep(150 * time.Millisecond)

	if _, err := repo.Get("stale-visit-create"); err != ErrKeyNotFound {
		t.Errorf("Get() stale key error = %v, want %v", err, ErrKeyNotFound)
	}

	close(stopChan)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("RunPeriodicCleanup() did not stop within timeout")
	}
}
