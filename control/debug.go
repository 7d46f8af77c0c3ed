// control/debug.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Debug probes: named state providers rendered with go-spew for dumps and
// health checks.

package control

import (
	"sort"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
)

// DebugRegistry holds named probe functions.
type DebugRegistry struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugRegistry creates an empty registry.
func NewDebugRegistry() *DebugRegistry {
	return &DebugRegistry{probes: make(map[string]func() any)}
}

// RegisterProbe registers a named debug probe, replacing any previous one
// under the same name.
func (dr *DebugRegistry) RegisterProbe(name string, fn func() any) {
	dr.mu.Lock()
	dr.probes[name] = fn
	dr.mu.Unlock()
}

// Dump renders every probe's state, sorted by probe name.
func (dr *DebugRegistry) Dump() string {
	dr.mu.RLock()
	names := make([]string, 0, len(dr.probes))
	for name := range dr.probes {
		names = append(names, name)
	}
	probes := make(map[string]func() any, len(dr.probes))
	for name, fn := range dr.probes {
		probes[name] = fn
	}
	dr.mu.RUnlock()

	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString("== " + name + " ==\n")
		sb.WriteString(spew.Sdump(probes[name]()))
	}
	return sb.String()
}
