// Package metrics tracks latency quantiles and counters for the
// acquisition pipeline.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// LatencyTracker tracks latency quantiles per operation using DDSketch.
type LatencyTracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	counters         map[string]int64
	relativeAccuracy float64
}

// NewLatencyTracker creates a tracker. relativeAccuracy bounds the error
// of quantile estimates (0.01 = 1%).
func NewLatencyTracker(relativeAccuracy float64) *LatencyTracker {
	return &LatencyTracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		counters:         make(map[string]int64),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record adds one duration sample for operation.
func (lt *LatencyTracker) Record(operation string, duration time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, ok := lt.sketches[operation]
	if !ok {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(lt.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(lt.relativeAccuracy)
		}
		lt.sketches[operation] = sketch
	}

	// milliseconds
	_ = sketch.Add(float64(duration.Microseconds()) / 1000.0)
}

// Inc increments a named counter.
func (lt *LatencyTracker) Inc(name string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.counters[name]++
}

// Count returns the value of a named counter.
func (lt *LatencyTracker) Count(name string) int64 {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.counters[name]
}

// Counters returns a copy of all counters.
func (lt *LatencyTracker) Counters() map[string]int64 {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	out := make(map[string]int64, len(lt.counters))
	for k, v := range lt.counters {
		out[k] = v
	}
	return out
}

// Stats holds common statistics for one operation, in milliseconds.
type Stats struct {
	Operation string
	Count     int64
	Min       float64
	P50       float64
	P90       float64
	P99       float64
	Max       float64
}

// GetStats returns statistics for operation.
func (lt *LatencyTracker) GetStats(operation string) (Stats, error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.statsLocked(operation)
}

func (lt *LatencyTracker) statsLocked(operation string) (Stats, error) {
	sketch, ok := lt.sketches[operation]
	if !ok {
		return Stats{}, fmt.Errorf("no data for operation: %s", operation)
	}

	count := sketch.GetCount()
	if count == 0 {
		return Stats{Operation: operation}, nil
	}

	min, _ := sketch.GetMinValue()
	p50, _ := sketch.GetValueAtQuantile(0.50)
	p90, _ := sketch.GetValueAtQuantile(0.90)
	p99, _ := sketch.GetValueAtQuantile(0.99)
	max, _ := sketch.GetMaxValue()

	return Stats{
		Operation: operation,
		Count:     int64(count),
		Min:       min,
		P50:       p50,
		P90:       p90,
		P99:       p99,
		Max:       max,
	}, nil
}

// GetAllStats returns statistics for every tracked operation, sorted by name.
func (lt *LatencyTracker) GetAllStats() []Stats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	ops := make([]string, 0, len(lt.sketches))
	for op := range lt.sketches {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	stats := make([]Stats, 0, len(ops))
	for _, op := range ops {
		if s, err := lt.statsLocked(op); err == nil {
			stats = append(stats, s)
		}
	}
	return stats
}

// String formats the statistics on one line.
func (s Stats) String() string {
	if s.Count == 0 {
		return fmt.Sprintf("%s: no data", s.Operation)
	}
	return fmt.Sprintf("%s (n=%d): min=%.2fms p50=%.2fms p90=%.2fms p99=%.2fms max=%.2fms",
		s.Operation, s.Count, s.Min, s.P50, s.P90, s.P99, s.Max)
}
