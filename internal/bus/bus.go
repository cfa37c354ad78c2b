// Package bus implements the single-process event bus (C6): FIFO
// publish/subscribe over enter/exit TraceEvents, with a re-entrancy guard
// and a declarative filter layer (filter.go) plus a coalescing console
// logger (console.go).
package bus

import (
	"sync"
	"time"

	"github.com/tracelens/agent/internal/telemetry/ids"
)

// Phase distinguishes an enter record from its matching exit.
type Phase string

const (
	PhaseEnter Phase = "enter"
	PhaseExit  Phase = "exit"
)

// Kind is the function-kind classification of spec §3.
type Kind string

const (
	KindFunction     Kind = "function"
	KindArrow        Kind = "arrow"
	KindMethod       Kind = "method"
	KindStaticMethod Kind = "static-method"
	KindConstructor  Kind = "constructor"
	KindGetter       Kind = "getter"
	KindSetter       Kind = "setter"
)

// Event is the immutable TraceEvent record of spec §3.
type Event struct {
	Phase    Phase
	EmitTime time.Time

	FuncName string
	File     string
	Line     *int
	Kind     Kind
	App      bool // true iff the callee is classified as app-code (C4/C3)

	ScopeID      ids.ScopeID
	Depth        int
	SpanID       ids.SpanID
	ParentSpanID ids.SpanID // empty means root

	Args interface{}

	// Exit-only fields.
	Result    interface{}
	Error     interface{}
	Threw     bool
	Unawaited bool
	Synthetic bool // set by the assembler's balancing pass
}

// Subscriber receives every published event that reaches it (after the
// re-entrancy guard); per-scope and content filtering happens in the
// subscriber itself or via a Filter wrapper.
type Subscriber func(Event)

type subscription struct {
	id  int
	sub Subscriber
}

// Bus is a process-wide, in-process publish/subscribe hub.
type Bus struct {
	mu     sync.Mutex
	subs   []subscription
	nextID int

	emitting bool
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers sub and returns a handle for Unsubscribe.
func (b *Bus) Subscribe(sub Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, sub: sub})
	return id
}

// Unsubscribe removes the subscriber registered under id. A removed
// subscriber never receives events published after this call returns,
// even if Publish is already iterating (the snapshot below is taken
// before Unsubscribe runs, or after — either way id is no longer present
// the next time Publish snapshots the list).
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every current subscriber in registration order
// (FIFO). A publish that occurs while another publish is already
// in-flight, on any goroutine, is dropped by the re-entrancy guard — a
// subscriber that itself emits events must not recurse into itself,
// per §4.6.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	if b.emitting {
		b.mu.Unlock()
		return
	}
	b.emitting = true
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.sub(e)
	}

	b.mu.Lock()
	b.emitting = false
	b.mu.Unlock()
}
