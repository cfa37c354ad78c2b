package scope

import "github.com/tracelens/agent/internal/telemetry/ids"

// Span is the in-memory record described in spec §3: {id, parent id,
// depth, suspended?}. Spans exist only on a Scope's stack between Enter
// and Exit; no span ever outlives its exit emission.
type Span struct {
	ID        ids.SpanID
	ParentID  ids.SpanID
	Depth     int
	Suspended bool
}
