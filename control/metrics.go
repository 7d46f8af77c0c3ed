// control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime metrics collector for port-level monitoring. Sources (ports,
// pools) register snapshot providers; the registry pulls them on demand.

package control

import (
	"sync"
	"time"
)

// Snapshotter produces a point-in-time metric map.
type Snapshotter func() map[string]any

// MetricsRegistry aggregates named metric sources.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	sources map[string]Snapshotter
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
		sources: make(map[string]Snapshotter),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// RegisterSource attaches a named snapshot provider, e.g. a port's Stats.
func (mr *MetricsRegistry) RegisterSource(name string, fn Snapshotter) {
	mr.mu.Lock()
	mr.sources[name] = fn
	mr.mu.Unlock()
}

// GetSnapshot returns the stored metrics merged with one pull of every
// registered source, prefixed by source name.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	sources := make(map[string]Snapshotter, len(mr.sources))
	for name, fn := range mr.sources {
		sources[name] = fn
	}
	mr.mu.RUnlock()

	for name, fn := range sources {
		for k, v := range fn() {
			out[name+"."+k] = v
		}
	}
	return out
}
