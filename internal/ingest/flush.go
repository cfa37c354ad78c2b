package ingest

import (
	"sync"
	"time"

	"github.com/tracelens/agent/internal/scope"
)

// IdleMonitor watches a scope's span stack for the configured idle-flush
// window (spec §6's TRACE_IDLE_FLUSH_MS) and force-flushes it if no span
// opens or closes before the window elapses, so work left running by a
// handler that already returned doesn't hold resources indefinitely.
type IdleMonitor struct {
	idle time.Duration

	mu      sync.Mutex
	timers  map[scope.ScopeID]*time.Timer
	onFlush func(*scope.Scope)
}

// NewIdleMonitor creates a monitor. A non-positive idle duration disables
// it — Touch becomes a no-op.
func NewIdleMonitor(idle time.Duration, onFlush func(*scope.Scope)) *IdleMonitor {
	return &IdleMonitor{idle: idle, timers: make(map[scope.ScopeID]*time.Timer), onFlush: onFlush}
}

// Touch resets sc's idle window. Call it every time a span opens or
// closes in sc.
func (m *IdleMonitor) Touch(sc *scope.Scope) {
	if m.idle <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[sc.ID]; ok {
		t.Stop()
	}
	m.timers[sc.ID] = time.AfterFunc(m.idle, func() {
		m.mu.Lock()
		delete(m.timers, sc.ID)
		m.mu.Unlock()
		m.onFlush(sc)
	})
}

// Cancel stops sc's idle timer, called once the scope flushes through
// its normal (non-idle) path so the timer doesn't fire a second flush.
func (m *IdleMonitor) Cancel(sc *scope.Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[sc.ID]; ok {
		t.Stop()
		delete(m.timers, sc.ID)
	}
}
