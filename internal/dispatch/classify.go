package dispatch

import "github.com/dop251/goja"

// isThenable reports whether v is an object carrying a callable "then" —
// the dispatcher's structural test for "this call returned a promise",
// per spec §4.2.
func isThenable(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	if !ok {
		return false
	}
	_, ok = goja.AssertFunction(obj.Get("then"))
	return ok
}

// isQueryBuilder narrows isThenable to the ORM query-builder shape: a
// thenable that also exposes a way to run independently of `then`
// (exec/toSQL/clone), so the dispatcher knows this value is live work
// the caller might abandon unawaited, not just an already-settled
// promise wrapper.
func isQueryBuilder(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	if !ok || !isThenable(v) {
		return false
	}
	for _, name := range []string{"exec", "toSQL", "clone"} {
		if _, ok := goja.AssertFunction(obj.Get(name)); ok {
			return true
		}
	}
	return false
}
