package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key identifies a cache entry. It is the 16-character lowercase hex form
// of a 64-bit hash, safe to use as a file name or object key.
type Key string

// KeyFor derives the cache key for a source URL.
func KeyFor(url string) Key {
	return Key(fmt.Sprintf("%016x", xxhash.Sum64String(url)))
}

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// Valid reports whether k has the shape produced by KeyFor.
func (k Key) Valid() bool {
	if len(k) != 16 {
		return false
	}
	for _, c := range k {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
