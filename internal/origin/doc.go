/*
Package origin implements the origin tagger (C3). It walks an exported
value graph — a module's exports, a class's prototype, a callback
argument — and attaches a FunctionOrigin mark to every function it finds,
recording the file it was defined in and whether that file counts as
application code per the configured include/exclude patterns.

Marks are attached directly to the goja.Object via a hidden Symbol-keyed
property when the object permits it, and fall back to a side table keyed
by object identity when it doesn't (frozen or non-extensible objects).
Callers read a mark with Read, which checks both locations.

	origin.Walk(vm, exports, "/app/src/handlers.js", matcher, bodyTraced)
	o, ok := origin.Read(fn)
*/
package origin
