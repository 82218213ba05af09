package cache

import "context"

// NullCache is a no-op cache that never stores anything.
// Used when caching is disabled with --no-cache.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Exists always reports a miss.
func (c *NullCache) Exists(context.Context, Key) bool { return false }

// Read always returns ErrNotFound.
func (c *NullCache) Read(context.Context, Key) ([]byte, error) { return nil, ErrNotFound }

// Write does nothing.
func (c *NullCache) Write(context.Context, Key, []byte) error { return nil }

// Delete does nothing.
func (c *NullCache) Delete(context.Context, Key) error { return nil }

// Close does nothing.
func (c *NullCache) Close() error { return nil }

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
