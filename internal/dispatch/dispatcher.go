// Package dispatch implements the dispatcher (C4): the single choke
// point every rewritten function body and call site routes through. It
// opens and closes spans against the current scope, classifies call
// results to detect an unawaited thenable, emits TraceEvents onto the
// bus, and swaps a dependency's exported methods so un-rewritten code
// gets the same treatment as application code.
package dispatch

import (
	"strconv"

	"github.com/dop251/goja"

	"github.com/tracelens/agent/internal/bus"
	"github.com/tracelens/agent/internal/sanitize"
	"github.com/tracelens/agent/internal/scope"
	"github.com/tracelens/agent/internal/telemetry/ids"
	"github.com/tracelens/agent/internal/telemetry/metrics"
)

// Dispatcher is bound into the VM global object as __tlDispatch. Every
// method here is called directly from rewritten JS, so none of them may
// block — spec §5's concurrency model requires the whole pipeline to
// stay synchronous with the single VM goroutine.
type Dispatcher struct {
	store     *scope.Store
	bus       *bus.Bus
	sanitizer *sanitize.Sanitizer
	metrics   *metrics.Metrics
	vm        *goja.Runtime
}

// BindRuntime attaches the goja.Runtime the dispatcher's wrapped
// callables (Call, CallMethod) must be constructed against. Call this
// once, before the runtime starts evaluating any instrumented source.
func (d *Dispatcher) BindRuntime(vm *goja.Runtime) {
	d.vm = vm
}

// New creates a Dispatcher. store must be the same Store the runtime
// uses to track the active scope for the goroutine the VM runs on.
func New(store *scope.Store, b *bus.Bus, sanitizer *sanitize.Sanitizer, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{store: store, bus: b, sanitizer: sanitizer, metrics: m}
}

// frame pairs a scope.Span with the bookkeeping Exit/Result/ExitThrow
// need: the metadata Enter captured, and whether FrameUnawaited was
// already consumed (at most once per frame, per §4.5).
type frame struct {
	span       *scope.Span
	name       string
	file       string
	line       int
	kind       string
	scopeID    ids.ScopeID
	app        bool
	unawaited  bool
	resultSeen bool
}

// Enter opens a span in the current scope and emits the enter-phase
// TraceEvent. Called from rewritten function prologues as
// __tlDispatch.enter(name, file, line, kind, arguments).
func (d *Dispatcher) Enter(name, file string, line int64, kind string, arguments goja.Value) *frame {
	sc := d.store.Current()
	if sc == nil {
		return &frame{name: name, file: file, line: int(line), kind: kind}
	}

	span := sc.Enter()
	f := &frame{
		span: span, name: name, file: file, line: int(line), kind: kind,
		scopeID: sc.ID, app: true, unawaited: sc.FrameUnawaited(),
	}
	if d.metrics != nil {
		d.metrics.SpansOpened.Inc()
		if f.unawaited {
			d.metrics.UnawaitedSpans.Inc()
		}
	}

	l := int(line)
	d.bus.Publish(bus.Event{
		Phase:        bus.PhaseEnter,
		EmitTime:     sc.EmitTime(),
		FuncName:     name,
		File:         file,
		Line:         &l,
		Kind:         bus.Kind(kind),
		App:          f.app,
		ScopeID:      sc.ID,
		Depth:        span.Depth,
		SpanID:       span.ID,
		ParentSpanID: span.ParentID,
		Args:         d.sanitizer.SnapshotArgs(exportArguments(arguments)),
		Unawaited:    f.unawaited,
	})
	return f
}

// Result records a successful return value without closing the span —
// the prologue's try block calls this around every one of the
// function's own return expressions, per transform's wrapReturn. The
// value passes through unchanged.
func (d *Dispatcher) Result(f *frame, value goja.Value) goja.Value {
	if f != nil {
		f.resultSeen = true
	}
	return value
}

// Exit closes f's span and emits the exit-phase TraceEvent for a normal
// (non-throwing) return.
func (d *Dispatcher) Exit(f *frame) {
	d.exit(f, nil, false)
}

// ExitThrow closes f's span and emits the exit-phase TraceEvent marked
// threw=true, carrying the sanitized error value.
func (d *Dispatcher) ExitThrow(f *frame, errVal goja.Value) {
	d.exit(f, errVal, true)
}

func (d *Dispatcher) exit(f *frame, errVal goja.Value, threw bool) {
	if f == nil || f.span == nil {
		return
	}
	sc := d.store.Current()
	if sc == nil {
		return
	}
	sc.Exit(f.span)
	if d.metrics != nil {
		d.metrics.SpansClosed.Inc()
	}

	l := f.line
	event := bus.Event{
		Phase:        bus.PhaseExit,
		EmitTime:     sc.EmitTime(),
		FuncName:     f.name,
		File:         f.file,
		Line:         &l,
		Kind:         bus.Kind(f.kind),
		App:          f.app,
		ScopeID:      f.scopeID,
		Depth:        f.span.Depth,
		SpanID:       f.span.ID,
		ParentSpanID: f.span.ParentID,
		Threw:        threw,
		Unawaited:    f.unawaited,
	}
	if threw {
		event.Error = d.sanitizer.Snapshot(errVal)
	}
	d.bus.Publish(event)
}

func exportArguments(v goja.Value) []goja.Value {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return nil
	}
	length := int(obj.Get("length").ToInteger())
	out := make([]goja.Value, 0, length)
	for i := 0; i < length; i++ {
		out = append(out, obj.Get(strconv.Itoa(i)))
	}
	return out
}
