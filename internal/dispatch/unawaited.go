package dispatch

import (
	"github.com/dop251/goja"

	"github.com/tracelens/agent/internal/origin"
	"github.com/tracelens/agent/internal/scope"
)

// dispatchArgs bundles one call-site invocation's bookkeeping. builder is
// the method receiver for a CallMethod dispatch, used as the query-
// builder finalizer key; nil for a plain Call.
type dispatchArgs struct {
	calleeObj *goja.Object
	fn        goja.Callable
	this      goja.Value
	args      []goja.Value
	file      string
	line      int
	label     string
	kind      string
	unawaited bool
	builder   *goja.Object
}

// Call wraps a plain call-site's callee ("foo()") into a dispatcher-aware
// callable, per spec §4.4. unawaited is the fact the transformer already
// knows at the AST call site — whether this call sits in an awaited
// position — threaded straight through instead of inferred afterward from
// the callee's return value, so a pending-unawaited marker lands on the
// callee's own frame rather than on whatever frame the caller enters
// next. Returns callee unchanged when it isn't actually callable, so a
// call-site wrap around something that turned out not to be a function
// degrades to the original behavior instead of throwing inside the
// dispatcher.
func (d *Dispatcher) Call(file string, line int64, callee goja.Value, unawaited bool) goja.Value {
	fn, ok := goja.AssertFunction(callee)
	if !ok {
		return callee
	}
	calleeObj, _ := callee.(*goja.Object)
	return d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return d.dispatch(dispatchArgs{
			calleeObj: calleeObj, fn: fn, this: call.This, args: call.Arguments,
			file: file, line: int(line), label: "(anonymous)", kind: "function",
			unawaited: unawaited,
		})
	})
}

// CallMethod wraps a method call-site ("obj.method()"), binding the
// receiver explicitly so `this` inside the real method stays correct —
// see transform.wrapCallSite for why the receiver can't just ride along
// inside the wrapped callee value. The receiver also doubles as the
// query-builder finalizer key: find/sort/lean/exec in a chain are, by ORM
// convention, all called against the same underlying builder instance.
func (d *Dispatcher) CallMethod(file string, line int64, obj goja.Value, method string, unawaited bool) goja.Value {
	receiver, ok := obj.(*goja.Object)
	if !ok {
		return goja.Undefined()
	}
	calleeVal := receiver.Get(method)
	fn, ok := goja.AssertFunction(calleeVal)
	if !ok {
		return goja.Undefined()
	}
	calleeObj, _ := calleeVal.(*goja.Object)
	return d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return d.dispatch(dispatchArgs{
			calleeObj: calleeObj, fn: fn, this: receiver, args: call.Arguments,
			file: file, line: int(line), label: method, kind: "method",
			unawaited: unawaited, builder: receiver,
		})
	})
}

// dispatch is the shared body of Call/CallMethod: wrap any callable
// argument so it begins at this call's scope snapshot whenever the
// callee actually invokes it, classify the callee, mark the scope
// un-awaited before the callee runs (not after — that would mark
// whatever frame the caller enters next instead of this call's own
// frame), then either let a self-tracing callee emit its own events or
// open a frame here for one that doesn't.
func (d *Dispatcher) dispatch(a dispatchArgs) goja.Value {
	sc := d.store.Current()
	if sc == nil {
		result, err := a.fn(a.this, a.args...)
		if err != nil {
			panic(err)
		}
		return result
	}
	a.args = d.wrapCallbackArgs(a.args)

	selfTraced := false
	if a.calleeObj != nil {
		if o, ok := origin.Read(a.calleeObj); ok {
			selfTraced = o.BodyTraced || o.SkipWrap
		}
	}

	// Per §4.5 `enter`: the pending marker is queued before the callee's
	// own prologue (if any) runs its Enter, so the marker lands on the
	// callee's frame rather than on whatever the caller enters next.
	if a.unawaited {
		sc.MarkUnawaited()
	}

	if selfTraced {
		return d.runSelfTraced(sc, a)
	}
	return d.runOwnFrame(sc, a)
}

// runSelfTraced invokes a callee that emits its own enter/exit — either
// because transform.Transform already wrapped its body, or because
// WrapDependencyExports already wrapped its export. The dispatcher's only
// remaining job here is scope isolation for an un-awaited invocation; the
// callee's own prologue/epilogue already handles Result/Exit for whatever
// it returns, thenable or not.
func (d *Dispatcher) runSelfTraced(sc *scope.Scope, a dispatchArgs) goja.Value {
	if !a.unawaited {
		result, err := a.fn(a.this, a.args...)
		if err != nil {
			panic(err)
		}
		return result
	}

	// The fork is taken before the callee's own Enter runs, so the
	// callee's span stack builds up entirely inside fork and never
	// touches sc — the caller's live, concurrent stack never sees it.
	fork := sc.ForkForUnawaited()
	// Move the pending marker dispatch queued on sc onto fork, where the
	// callee's own Enter runs.
	sc.ConfirmAwaited()
	fork.MarkUnawaited()
	var result goja.Value
	var callErr error
	d.store.Run(fork, func() {
		result, callErr = a.fn(a.this, a.args...)
	})
	if callErr != nil {
		panic(callErr)
	}
	return result
}

// runOwnFrame opens, emits, and closes a frame around a callee the
// dispatcher has not seen self-emit — a dependency function reached
// through a member call (e.g. Model.find), per spec §4.4's "otherwise,
// the dispatcher emits an enter event" branch.
func (d *Dispatcher) runOwnFrame(sc *scope.Scope, a dispatchArgs) goja.Value {
	span := sc.Enter()
	f := &frame{
		span: span, name: a.label, file: a.file, line: a.line, kind: a.kind,
		scopeID: sc.ID, unawaited: sc.FrameUnawaited(),
	}
	if d.metrics != nil {
		d.metrics.SpansOpened.Inc()
		if f.unawaited {
			d.metrics.UnawaitedSpans.Inc()
		}
	}
	d.publishEnter(sc, f, a.args)

	if a.unawaited {
		// Fork while this frame's span is still the live top, so the
		// fork's copy carries it as the parent for the callee's own
		// children, then suspend+close it on the live side immediately —
		// the caller's timeline doesn't wait on the promise.
		fork := sc.ForkForUnawaited()
		sc.Suspend(span)
		d.Exit(f)

		var result goja.Value
		var callErr error
		d.store.Run(fork, func() {
			result, callErr = a.fn(a.this, a.args...)
		})
		if callErr != nil {
			panic(callErr)
		}
		return result
	}

	result, callErr := a.fn(a.this, a.args...)
	if callErr != nil {
		d.ExitThrow(f, d.vm.ToValue(callErr.Error()))
		panic(callErr)
	}
	if isThenable(result) {
		return d.disposeThenable(sc, a, f, result)
	}
	d.Exit(f)
	return result
}

// disposeThenable implements §4.4's "disposing the call" for a thenable
// result of a self-opened frame. A query builder never gets a
// continuation attached — that would force it to execute — so it's
// queued as a finalizer instead and f's exit is emitted right away,
// carrying the builder itself. Any other thenable gets a continuation
// that emits f's exit once it settles, and also drains whatever
// finalizers are queued against the call's receiver: the exec call that
// actually resolves a query chain is exactly this case.
func (d *Dispatcher) disposeThenable(sc *scope.Scope, a dispatchArgs, f *frame, result goja.Value) goja.Value {
	obj, ok := result.(*goja.Object)
	if !ok {
		d.Exit(f)
		return result
	}

	if isQueryBuilder(result) {
		enqueueFinalizer(obj, f)
		d.Exit(f)
		return result
	}

	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		d.Exit(f)
		return result
	}

	drained := drainFinalizers(a.builder)
	snapshot := sc.Snapshot()
	scopeID := sc.ID
	clockOffset := sc.ClockOffset()

	onResolve := d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		fork := scope.ForkFromSnapshot(scopeID, snapshot, clockOffset)
		d.store.Run(fork, func() {
			d.exit(f, nil, false)
			for _, qf := range drained {
				d.exit(qf, nil, false)
			}
		})
		return goja.Undefined()
	})
	onReject := d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		errVal := goja.Undefined()
		if len(call.Arguments) > 0 {
			errVal = call.Arguments[0]
		}
		fork := scope.ForkFromSnapshot(scopeID, snapshot, clockOffset)
		d.store.Run(fork, func() {
			d.exit(f, errVal, true)
			for _, qf := range drained {
				d.exit(qf, errVal, true)
			}
		})
		return goja.Undefined()
	})
	_, _ = then(obj, onResolve, onReject)
	return result
}

// Await is spliced around every awaited expression. It drops one pending
// un-awaited marker from the current scope if one is still queued, then
// passes the value through unchanged. A marker set by Call/CallMethod is
// already consumed by the callee's own Enter before the call returns, so
// awaiting that call's result on a later line leaves the callee's frame
// marked un-awaited.
func (d *Dispatcher) Await(value goja.Value) goja.Value {
	if sc := d.store.Current(); sc != nil {
		sc.ConfirmAwaited()
	}
	return value
}
