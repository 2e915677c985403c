package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching search responses and embeddings
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from its parts. Parts that may carry
// arbitrary text (queries, snippet bodies) are hashed so keys stay filesystem
// safe for the disk tier.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "claimlens:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
