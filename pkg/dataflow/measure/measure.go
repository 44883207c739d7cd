// Package measure collects per-invocation diagnostics for the nodes of a
// graph run: item counts, skipped records, aggregated warnings and wall
// time. All state is scoped to one invocation, never global.
package measure

import (
	"sync"
	"time"
)

// Measure holds one Invocation per node name for a single graph run.
type Measure struct {
	mu          sync.Mutex
	invocations map[string]*Invocation
}

func New() *Measure {
	return &Measure{
		invocations: make(map[string]*Invocation),
	}
}

// AddInvocation registers a node invocation, creating it if needed. A nil
// Measure returns a nil Invocation, which is safe to record into.
func (m *Measure) AddInvocation(name string) *Invocation {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.invocations[name]
	if !ok {
		inv = &Invocation{}
		m.invocations[name] = inv
	}

	return inv
}

// Invocation returns the diagnostics recorded for a node, or nil.
func (m *Measure) Invocation(name string) *Invocation {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.invocations[name]
}

// All returns all recorded invocations keyed by node name.
func (m *Measure) All() map[string]*Invocation {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*Invocation, len(m.invocations))
	for name, inv := range m.invocations {
		out[name] = inv
	}

	return out
}

// Invocation is the diagnostics record of one node invocation. All methods
// are safe on a nil receiver so callers never branch on measurement being
// enabled.
type Invocation struct {
	mu       sync.Mutex
	pushed   int64
	skipped  int64
	warnings int64
	elapsed  time.Duration
}

func (inv *Invocation) AddPushed(n int64) {
	if inv == nil {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.pushed += n
}

func (inv *Invocation) AddSkipped(n int64) {
	if inv == nil {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.skipped += n
}

func (inv *Invocation) AddWarning() {
	if inv == nil {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.warnings++
}

func (inv *Invocation) SetElapsed(elapsed time.Duration) {
	if inv == nil {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.elapsed = elapsed
}

func (inv *Invocation) Pushed() int64 {
	if inv == nil {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.pushed
}

func (inv *Invocation) Skipped() int64 {
	if inv == nil {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.skipped
}

func (inv *Invocation) Warnings() int64 {
	if inv == nil {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.warnings
}

func (inv *Invocation) Elapsed() time.Duration {
	if inv == nil {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.elapsed
}
