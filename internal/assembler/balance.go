package assembler

import "github.com/tracelens/agent/internal/bus"

// balance appends a synthetic exit for every enter in events that has no
// matching exit by span id, per §4.8's note that an un-awaited path or a
// crashed async continuation can abandon a span mid-flight. The synthetic
// exit carries the enter's identification fields, depth one less than the
// enter's, unawaited=true, and no return/error.
func balance(events []bus.Event) []bus.Event {
	exited := make(map[string]bool, len(events))
	for _, e := range events {
		if e.Phase == bus.PhaseExit {
			exited[string(e.SpanID)] = true
		}
	}

	out := make([]bus.Event, len(events))
	copy(out, events)

	for _, e := range events {
		if e.Phase != bus.PhaseEnter || exited[string(e.SpanID)] {
			continue
		}
		depth := e.Depth - 1
		if depth < 0 {
			depth = 0
		}
		out = append(out, bus.Event{
			Phase:        bus.PhaseExit,
			EmitTime:     e.EmitTime,
			FuncName:     e.FuncName,
			File:         e.File,
			Line:         e.Line,
			Kind:         e.Kind,
			App:          e.App,
			ScopeID:      e.ScopeID,
			Depth:        depth,
			SpanID:       e.SpanID,
			ParentSpanID: e.ParentSpanID,
			Unawaited:    true,
			Synthetic:    true,
		})
	}
	return out
}
