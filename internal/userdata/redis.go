package userdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentStore implements DocumentStore on Redis, holding each
// document as one JSON value. Writes replace the whole document, so
// concurrent writers for the same key are last-write-wins.
type RedisDocumentStore struct {
	client *redis.Client
}

// NewRedisDocumentStore creates a Redis-backed document store.
func NewRedisDocumentStore(client *redis.Client) *RedisDocumentStore {
	return &RedisDocumentStore{client: client}
}

func docKey(collection, id string) string {
	return "doc:" + collection + ":" + id
}

// Get returns the raw document, or ErrNotFound.
func (s *RedisDocumentStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	doc, err := s.client.Get(ctx, docKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// Set writes the full document, replacing any existing value. Documents
// never expire.
func (s *RedisDocumentStore) Set(ctx context.Context, collection, id string, doc []byte) error {
	if err := s.client.Set(ctx, docKey(collection, id), doc, 0).Err(); err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", collection, id, err)
	}
	return nil
}
