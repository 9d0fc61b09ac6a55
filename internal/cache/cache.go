// Package cache provides a small TTL key/value cache with memory and Redis backends.
package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Cache stores opaque values with a per-key TTL. A zero TTL never expires.
// Concurrent writers to the same key race; the last write wins.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// FolderCountsKey is the key of a user's aggregated folder counts.
func FolderCountsKey(userID string) string {
	return "folder-counts:" + userID
}

// GetJSON reads and decodes a cached value. An undecodable entry is dropped and reported as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var out T

	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		_ = c.Delete(ctx, key)
		var zero T
		return zero, false, nil
	}
	return out, true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}
