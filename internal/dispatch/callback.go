package dispatch

import (
	"sync"

	"github.com/dop251/goja"

	"github.com/tracelens/agent/internal/scope"
)

// contextSetters tracks every value WrapCallback has already produced, so
// a callback handed through a second call site that happens to pass an
// already-wrapped value straight through doesn't get wrapped again —
// spec §4.4's "suppressed when the callee is itself the task-local
// context-setter, to avoid recursive context installation". Keyed by
// object identity, mirroring querybuilder.go's side table.
var (
	contextSettersMu sync.Mutex
	contextSetters   = make(map[*goja.Object]bool)
)

func isContextSetter(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	if !ok {
		return false
	}
	contextSettersMu.Lock()
	defer contextSettersMu.Unlock()
	return contextSetters[obj]
}

func markContextSetter(v goja.Value) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return
	}
	contextSettersMu.Lock()
	defer contextSettersMu.Unlock()
	contextSetters[obj] = true
}

// WrapCallback snapshots the current scope's span stack and returns a
// callable that restores a fork of it around cb whenever cb actually
// runs. Use this at known deferral points — setTimeout, setInterval,
// promise continuations registered directly with the host instead of
// through a rewritten await — where the callback can run later than the
// call stack that created it, after the Store's current scope has moved
// on to a different request.
//
// Callbacks invoked synchronously within the same call stack (Array.map,
// a plain higher-order function) don't need this: the Store's current
// scope is already correct for them.
func (d *Dispatcher) WrapCallback(cb goja.Value) goja.Value {
	if isContextSetter(cb) {
		return cb
	}
	fn, ok := goja.AssertFunction(cb)
	if !ok {
		return cb
	}
	sc := d.store.Current()
	if sc == nil {
		return cb
	}
	snapshot := sc.Snapshot()
	scopeID := sc.ID
	clockOffset := sc.ClockOffset()

	wrapped := d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		fork := scope.ForkFromSnapshot(scopeID, snapshot, clockOffset)
		var result goja.Value
		var callErr error
		d.store.Run(fork, func() {
			result, callErr = fn(call.This, call.Arguments...)
		})
		if callErr != nil {
			panic(callErr)
		}
		return result
	})
	markContextSetter(wrapped)
	return wrapped
}

// wrapCallbackArgs replaces every callable entry of args with a
// WrapCallback wrapper, per spec §4.4's callback-argument isolation: an
// app function handing a callback to a dependency (a sort comparator, a
// thenable continuation, an iterator visitor) needs that callback to
// begin at the caller's span-stack state whenever the dependency actually
// invokes it, not at whatever scope happens to be current then.
func (d *Dispatcher) wrapCallbackArgs(args []goja.Value) []goja.Value {
	if len(args) == 0 {
		return args
	}
	out := make([]goja.Value, len(args))
	for i, a := range args {
		if _, ok := goja.AssertFunction(a); ok {
			out[i] = d.WrapCallback(a)
		} else {
			out[i] = a
		}
	}
	return out
}
