// Package cache provides byte caches for fetched photo payloads.
//
// A batch often references the same product photo from many rows; caching
// the downloaded bytes means each URL is fetched once per TTL window. Three
// backends implement [Cache]:
//
//   - [FileCache]: JSON entry files under ~/.cache/cardforge (CLI default)
//   - [RedisCache]: a shared Redis instance (for several workers or hosts)
//   - [NullCache]: caching disabled (--no-cache, tests)
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores opaque byte payloads under string keys.
type Cache interface {
	// Get returns the payload for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLPhoto is how long fetched photo bytes stay valid.
const TTLPhoto = 24 * time.Hour

// photoPrefix namespaces photo entries, which matters when a Redis
// instance is shared with other tools.
const photoPrefix = "photo:"

// PhotoKey returns the cache key for a photo URL: the prefix and the
// SHA-256 of the URL. Surrounding whitespace is ignored, so cells that
// differ only in padding share one entry.
func PhotoKey(url string) string {
	return photoPrefix + digest(strings.TrimSpace(url))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
