/*
Package dispatch implements the dispatcher (C4), bound into the VM's
global object as __tlDispatch:

	d := dispatch.New(store, b, sanitizer, m)
	d.BindRuntime(vm)
	vm.Set("__tlDispatch", map[string]interface{}{
		"enter":       d.Enter,
		"exit":        d.Exit,
		"exitThrow":   d.ExitThrow,
		"result":      d.Result,
		"call":        d.Call,
		"callMethod":  d.CallMethod,
		"await":       d.Await,
	})

Every method runs synchronously on the goroutine driving the shared
goja.Runtime — none of them may block. Enter/Exit/ExitThrow/Result are
called from a rewritten function's own prologue/epilogue; Call/CallMethod
wrap a call-site's callee, taking the unawaited flag the transformer
already computed from the call's AST position as their last argument —
the dispatcher never has to guess unawaited-ness from the return value,
it's told up front. The callee's own frame consumes that mark while the
call runs; Await only drops a marker that is still pending when it runs.
WrapDependencyExports applies the same
tracing to a dependency module's exports at load time instead, since
dependency source is never rewritten; Call/CallMethod recognize an
already-wrapped or already-rewritten callee and skip opening a second
frame around it.
*/
package dispatch
