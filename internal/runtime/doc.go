/*
Package runtime owns the single shared goja.Runtime and wires the
dispatcher (internal/dispatch) and module loader (internal/loader) into
it.

	rt := runtime.New(runtime.DefaultConfig(), d, l, logger)
	exports, err := rt.LoadModule("/app/src/handlers.js")

Run enforces Config.Timeout through goja's own interrupt mechanism,
generalizing the pattern the embedded browser sandbox used for a single
RunString call into an arbitrary host-supplied entry point, since here
the entry point is "invoke the request handler the loader just
resolved", not "run this one script".
*/
package runtime
