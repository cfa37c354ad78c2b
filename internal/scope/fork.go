package scope

import "time"

// ForkForUnawaited produces a sibling Scope sharing the scope id but with
// an independent span stack filtered of any spans marked suspended — §4.5
// `fork-for-unawaited`. Used when an un-awaited callee actually runs, so
// its children don't pollute the caller's live stack (§5 "un-awaited
// calls").
func (s *Scope) ForkForUnawaited() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	fork := &Scope{ID: s.ID, clockOffset: s.clockOffset}
	for _, span := range s.stack {
		if span.Suspended {
			continue
		}
		fork.stack = append(fork.stack, span)
	}
	fork.depth = len(fork.stack)
	return fork
}

// ForkFromSnapshot rebuilds a Scope whose stack is exactly the given
// spans — used so a thenable's eventual exit is emitted inside a scope
// matching the state at the call site, per §4.4's "disposing the call":
// "The exit is emitted in a forked scope that matches the state at
// suspension time, so that exits do not collide with unrelated work
// running in the caller's scope." clockOffset carries over so a delayed
// exit still reports in the caller's clock frame, not the server's raw
// wall clock.
func ForkFromSnapshot(id ScopeID, spans []*Span, clockOffset time.Duration) *Scope {
	sc := &Scope{ID: id, depth: len(spans), clockOffset: clockOffset}
	sc.stack = append(sc.stack, spans...)
	return sc
}
