package metrics

import (
	"context"
	"time"

	"github.com/matzehuels/qrfetch/pkg/observability"
)

// Operation and counter names recorded by Hooks.
const (
	OpTierPrefix = "tier."
	OpAcquire    = "acquire"
	OpHTTP       = "http"

	CounterCacheHit   = "cache.hit"
	CounterCacheMiss  = "cache.miss"
	CounterCacheWrite = "cache.write"
	CounterCacheEvict = "cache.evict"
	CounterHTTPError  = "http.error"
	CounterFailPrefix = "fail."
	CounterNoResult   = "acquire.no_result"
)

// Hooks records observability events into a LatencyTracker.
// It implements the acquire, cache and HTTP hook interfaces.
type Hooks struct {
	Tracker *LatencyTracker
}

// Hooks returns an observability adapter backed by lt.
func (lt *LatencyTracker) Hooks() *Hooks {
	return &Hooks{Tracker: lt}
}

// Register installs h for all hook categories.
func (h *Hooks) Register() {
	observability.SetAcquireHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *Hooks) OnTierStart(context.Context, string) {}

func (h *Hooks) OnTierComplete(_ context.Context, tier string, d time.Duration, err error) {
	h.Tracker.Record(OpTierPrefix+tier, d)
	if err != nil {
		h.Tracker.Inc(CounterFailPrefix + tier)
	}
}

func (h *Hooks) OnAcquireComplete(_ context.Context, tier string, d time.Duration) {
	h.Tracker.Record(OpAcquire, d)
	if tier == "" {
		h.Tracker.Inc(CounterNoResult)
	}
}

func (h *Hooks) OnCacheHit(context.Context, string)  { h.Tracker.Inc(CounterCacheHit) }
func (h *Hooks) OnCacheMiss(context.Context, string) { h.Tracker.Inc(CounterCacheMiss) }

func (h *Hooks) OnCacheWrite(context.Context, string, int) { h.Tracker.Inc(CounterCacheWrite) }

func (h *Hooks) OnCacheEvict(context.Context, string, error) { h.Tracker.Inc(CounterCacheEvict) }

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, _, _, _ string, _ int, d time.Duration) {
	h.Tracker.Record(OpHTTP, d)
}

func (h *Hooks) OnError(context.Context, string, string, string, error) {
	h.Tracker.Inc(CounterHTTPError)
}

var (
	_ observability.AcquireHooks = (*Hooks)(nil)
	_ observability.CacheHooks   = (*Hooks)(nil)
	_ observability.HTTPHooks    = (*Hooks)(nil)
)
