package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a TTL'd byte cache used to memoize expensive generated content.
// Lookups are best-effort: a miss and a failed read look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key builds a cache key from a purpose label and a content hash, so large
// prompts never appear verbatim in the keyspace.
func Key(purpose, content string) string {
	sum := sha256.Sum256([]byte(content))
	return purpose + ":" + hex.EncodeToString(sum[:])
}
