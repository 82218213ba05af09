// Package observability provides hooks for metrics and diagnostics.
//
// The acquisition pipeline deliberately hides per-tier failure reasons
// from its callers. Hooks are where those reasons surface: every tier
// attempt, cache decision and HTTP round trip is reported here without
// changing the pipeline's completion contract.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    tracker := metrics.NewLatencyTracker(0.01)
//	    observability.SetAcquireHooks(tracker.Hooks())
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Acquire().OnTierStart(ctx, "api")
//	// ... try the tier ...
//	observability.Acquire().OnTierComplete(ctx, "api", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Acquire Hooks
// =============================================================================

// AcquireHooks receives events from the acquisition orchestrator.
type AcquireHooks interface {
	// OnTierStart records the start of a tier attempt (local, api, scrape).
	OnTierStart(ctx context.Context, tier string)

	// OnTierComplete records the outcome of a tier attempt. err carries the
	// failure reason that the orchestrator hides from its caller.
	OnTierComplete(ctx context.Context, tier string, duration time.Duration, err error)

	// OnAcquireComplete records the terminal outcome of one request.
	// tier is empty when every tier failed.
	OnAcquireComplete(ctx context.Context, tier string, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the cached image fetcher.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheWrite records a cache write.
	OnCacheWrite(ctx context.Context, key string, size int)

	// OnCacheEvict records the deletion of a stale or corrupt entry.
	OnCacheEvict(ctx context.Context, key string, reason error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAcquireHooks is a no-op implementation of AcquireHooks.
type NoopAcquireHooks struct{}

func (NoopAcquireHooks) OnTierStart(context.Context, string)                          {}
func (NoopAcquireHooks) OnTierComplete(context.Context, string, time.Duration, error) {}
func (NoopAcquireHooks) OnAcquireComplete(context.Context, string, time.Duration)     {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)         {}
func (NoopCacheHooks) OnCacheWrite(context.Context, string, int)   {}
func (NoopCacheHooks) OnCacheEvict(context.Context, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	acquireHooks AcquireHooks = NoopAcquireHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetAcquireHooks registers custom acquisition hooks.
// This should be called once at application startup before any acquisitions.
func SetAcquireHooks(h AcquireHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		acquireHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Acquire returns the registered acquisition hooks.
func Acquire() AcquireHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return acquireHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	acquireHooks = NoopAcquireHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
