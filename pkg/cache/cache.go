// Package cache stores fetched remote image bytes keyed by source URL.
//
// Only raw bytes fetched from the network are cached; generated QR images
// are never stored. An entry is written after the first successful fetch
// whose bytes decode, read on every later request for the same URL, and
// deleted only when it turns out to be unreadable or corrupt.
//
// # Keys
//
// [KeyFor] derives a [Key] from a URL with the 64-bit xxHash. Keys are
// stable across processes but not collision-free; two URLs sharing a key
// would share an entry. That risk is accepted and not special-cased.
//
// # Backends
//
//   - [DiskCache]: one file per key under <root>/qrcode/ (default)
//   - [RedisCache]: shared cache for multi-instance servers
//   - [S3Cache]: shared cache in an S3 bucket
//   - [NullCache]: caching disabled
//
// All backends are safe for concurrent use. Concurrent writes of the same
// key are last-write-wins.
package cache

import (
	"context"
	"errors"
)

// Dir is the subdirectory (or key namespace) holding QR image entries.
const Dir = "qrcode"

// ErrNotFound is returned by [Cache.Read] when no entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Cache is a byte store addressed by [Key].
//
// Implementations perform synchronous I/O. Callers must not invoke them
// from a path that cannot tolerate blocking.
type Cache interface {
	// Exists reports whether an entry is present for key.
	Exists(ctx context.Context, key Key) bool

	// Read returns the stored bytes, or ErrNotFound.
	Read(ctx context.Context, key Key) ([]byte, error)

	// Write stores data under key, replacing any existing entry.
	Write(ctx context.Context, key Key, data []byte) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// Close releases backend resources.
	Close() error
}
