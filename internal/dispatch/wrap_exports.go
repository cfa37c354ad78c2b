package dispatch

import (
	"github.com/dop251/goja"

	"github.com/tracelens/agent/internal/bus"
	"github.com/tracelens/agent/internal/origin"
	"github.com/tracelens/agent/internal/scope"
)

// WrapDependencyExports gives a dependency module's exports the same
// enter/exit tracing a rewritten application file gets from its own
// source, without touching the dependency's source at all: every own
// function on exports is replaced with a dispatcher-wrapped version that
// calls through to the original. Call this once per module right after
// the loader evaluates it and origin.Walk has tagged it, when the
// loader decided the file doesn't count as application code.
func (d *Dispatcher) WrapDependencyExports(exports *goja.Object, file string) {
	if exports == nil {
		return
	}
	for _, key := range exports.Keys() {
		fn, ok := goja.AssertFunction(exports.Get(key))
		if !ok {
			continue
		}
		_ = exports.Set(key, d.wrapDependencyFunction(fn, key, file))
	}
}

func (d *Dispatcher) wrapDependencyFunction(fn goja.Callable, name, file string) goja.Value {
	wrapped := d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		sc := d.store.Current()
		if sc == nil {
			result, err := fn(call.This, call.Arguments...)
			if err != nil {
				panic(err)
			}
			return result
		}

		f := &frame{
			name: name, file: file, kind: "function",
			scopeID: sc.ID,
		}
		span := sc.Enter()
		f.span = span
		f.unawaited = sc.FrameUnawaited()
		if d.metrics != nil {
			d.metrics.SpansOpened.Inc()
		}
		args := d.wrapCallbackArgs(call.Arguments)
		d.publishEnter(sc, f, args)

		result, callErr := fn(call.This, args...)
		if callErr != nil {
			d.ExitThrow(f, d.vm.ToValue(callErr.Error()))
			panic(callErr)
		}

		// This path adds no un-awaited marker of its own, per spec §4.2:
		// a dependency export's own call site is never seen by the
		// transformer, so there's no AST position to derive it from, and
		// marking it here afterward would land the marker on the
		// caller's next Enter instead of this frame's own. f.unawaited is
		// set only by a marker an app call site queued before this ran.
		d.Exit(f)
		return result
	})

	// Mark the wrapper as already self-tracing so a later call-site wrap
	// around this same value (the app imports this export and calls it
	// directly) doesn't open a second frame around it.
	if obj, ok := wrapped.(*goja.Object); ok {
		origin.AttachOrSideTable(d.vm, obj, origin.Origin{DefiningFile: file, SkipWrap: true})
	}
	return wrapped
}

func (d *Dispatcher) publishEnter(sc *scope.Scope, f *frame, args []goja.Value) {
	l := f.line
	d.bus.Publish(bus.Event{
		Phase:        bus.PhaseEnter,
		EmitTime:     sc.EmitTime(),
		FuncName:     f.name,
		File:         f.file,
		Line:         &l,
		Kind:         bus.Kind(f.kind),
		ScopeID:      f.scopeID,
		Depth:        f.span.Depth,
		SpanID:       f.span.ID,
		ParentSpanID: f.span.ParentID,
		Args:         d.sanitizer.SnapshotArgs(args),
		Unawaited:    f.unawaited,
	})
}
