// Package idempotency stores per-key cached responses so retried writes
// (visit creation, for instance) return the original result instead of
// creating duplicates.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Key lifecycle states.
//
// StatusCompleted means the guarded request finished and its response is
// cached. StatusProcessing is reserved for marking a key while the first
// request is still in flight, which would close the race between two
// concurrent retries; the middleware documents that gap.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

var (
	// ErrKeyNotFound is returned when an idempotency key is not found.
	ErrKeyNotFound = errors.New("idempotency key not found")

	// ErrKeyExists is returned when attempting to create a duplicate key.
	ErrKeyExists = errors.New("idempotency key already exists")

	// ErrInvalidKey is returned when the key is invalid.
	ErrInvalidKey = errors.New("invalid idempotency key")

	// ErrKeyTooLong is returned when the key exceeds maximum length.
	ErrKeyTooLong = errors.New("idempotency key exceeds maximum length of 64 characters")
)

// MaxKeyLength bounds client-supplied Idempotency-Key header values.
const MaxKeyLength = 64

// Key is a stored idempotency record with the cached response needed to
// replay it.
type Key struct {
	Key                string    `json:"key"`
	Method             string    `json:"method"`
	Route              string    `json:"route"`
	CreatedAt          time.Time `json:"created_at"`
	VisitID            *string   `json:"visit_id,omitempty"`
	ResponseHash       string    `json:"response_hash"`
	Status             string    `json:"status"`
	ResponseBody       string    `json:"response_body"`
	ResponseStatusCode int       `json:"response_status_code"`
}

// ValidateKey rejects empty keys and keys longer than MaxKeyLength.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

// ComputeResponseHash returns the hex SHA256 of a response body, stored
// alongside the body to detect corruption before replaying it.
func ComputeResponseHash(responseBody string) string {
	hash := sha256.Sum256([]byte(responseBody))
	return hex.EncodeToString(hash[:])
}

// Repository persists idempotency keys.
type Repository interface {
	// Get returns the record for key, or ErrKeyNotFound.
	Get(key string) (*Key, error)

	// Store saves a new record, returning ErrKeyExists on duplicates.
	Store(record *Key) error

	// DeleteOlderThan removes records older than duration and reports how
	// many were deleted.
	DeleteOlderThan(duration time.Duration) (int64, error)
}
