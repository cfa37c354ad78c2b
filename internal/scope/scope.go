package scope

import (
	"sync"
	"time"

	"github.com/tracelens/agent/internal/telemetry/ids"
)

// ScopeID aliases the shared id type so callers don't need to import
// telemetry/ids just to name a scope.
type ScopeID = ids.ScopeID

// Scope is the task-local object of spec §3: {scope id, depth counter,
// span stack, pending-un-awaited queue, frame-un-awaited stack}.
type Scope struct {
	mu  sync.Mutex
	ID  ScopeID

	depth int
	stack []*Span

	pendingUnawaited int
	frameUnawaited   []bool

	clockOffset time.Duration
}

// New creates an empty Scope with the given id.
func New(id ScopeID) *Scope {
	return &Scope{ID: id}
}

// SetClockOffset records the difference between the caller-supplied
// request-start timestamp and local wall-clock at request start, per
// spec §4.7 point 1. EmitTime applies it to every timestamp emitted
// against this scope, so a caller whose clock runs ahead or behind the
// server doesn't see timestamps that drift from its own frame of
// reference.
func (s *Scope) SetClockOffset(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clockOffset = d
}

// ClockOffset returns the offset SetClockOffset recorded, for callers
// that need to carry it into a forked scope.
func (s *Scope) ClockOffset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clockOffset
}

// EmitTime returns the current wall-clock time shifted by this scope's
// clock-skew offset.
func (s *Scope) EmitTime() time.Time {
	s.mu.Lock()
	offset := s.clockOffset
	s.mu.Unlock()
	return time.Now().Add(offset)
}

// Depth returns the current depth counter.
func (s *Scope) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth
}

// Top returns the span at the top of the stack, or nil if empty.
func (s *Scope) Top() *Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top()
}

func (s *Scope) top() *Span {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// MarkUnawaited enqueues one pending un-awaited marker, drained by the
// next Enter — see §4.5 `enter`.
func (s *Scope) MarkUnawaited() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingUnawaited++
}

// ConfirmAwaited cancels one pending un-awaited marker, called when the
// dispatcher sees the call that set it actually reach an await
// expression before the scope's next Enter drains it.
func (s *Scope) ConfirmAwaited() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingUnawaited > 0 {
		s.pendingUnawaited--
	}
}

// Enter implements §4.5 `enter`: increment depth, pop a pending
// un-awaited marker into the frame-unawaited stack, push a new Span with a
// fresh id and parent equal to the current top.
func (s *Scope) Enter() *Span {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.depth++

	frameWasUnawaited := false
	if s.pendingUnawaited > 0 {
		s.pendingUnawaited--
		frameWasUnawaited = true
	}
	s.frameUnawaited = append(s.frameUnawaited, frameWasUnawaited)

	var parent ids.SpanID
	if top := s.top(); top != nil {
		parent = top.ID
	}

	span := &Span{ID: ids.NewSpanID(), ParentID: parent, Depth: s.depth}
	s.stack = append(s.stack, span)
	return span
}

// FrameUnawaited pops the frame-unawaited marker pushed by the matching
// Enter — the first half of §4.5 `exit`.
func (s *Scope) FrameUnawaited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.frameUnawaited)
	if n == 0 {
		return false
	}
	v := s.frameUnawaited[n-1]
	s.frameUnawaited = s.frameUnawaited[:n-1]
	return v
}

// Exit pops span from the stack and decrements the depth counter. The pop
// happens first, matching §4.5's note that "the depth counter is
// decremented only after the Span being closed is popped".
func (s *Scope) Exit(span *Span) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i] == span {
			s.stack = append(s.stack[:i], s.stack[i+1:]...)
			if s.depth > 0 {
				s.depth--
			}
			return
		}
	}
}

// Suspend marks span as suspended so a future ForkForUnawaited excludes it
// from the forked stack.
func (s *Scope) Suspend(span *Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	span.Suspended = true
}

// Snapshot copies the current span stack. Used when a thenable's eventual
// exit must be emitted against the stack as it stood at the call site,
// per §4.5's invariant on released copies.
func (s *Scope) Snapshot() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]*Span, len(s.stack))
	copy(cp, s.stack)
	return cp
}

// OpenSpans is an alias for Snapshot used by the ingest middleware to
// decide whether to linger before flushing a scope with spans still open.
func (s *Scope) OpenSpans() []*Span {
	return s.Snapshot()
}
