package assembler

import "github.com/tracelens/agent/internal/bus"

// Batch is one fixed-size chunk of a scope's reordered event list, tagged
// so the receiver can reconstruct the full ordering across chunks.
type Batch struct {
	ScopeID string     `json:"scopeId"`
	Index   int        `json:"index"`
	Total   int        `json:"total"`
	Events  []bus.Event `json:"events"`
}

// split divides events into fixed-size chunks of at most size events,
// tagging each with its scope id, index and the total chunk count. A nil
// or empty events list produces no batches at all.
func split(scopeID string, events []bus.Event, size int) []Batch {
	if len(events) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(events)
	}

	total := (len(events) + size - 1) / size
	batches := make([]Batch, 0, total)
	for i := 0; i < total; i++ {
		start := i * size
		end := start + size
		if end > len(events) {
			end = len(events)
		}
		batches = append(batches, Batch{
			ScopeID: scopeID,
			Index:   i,
			Total:   total,
			Events:  events[start:end],
		})
	}
	return batches
}
