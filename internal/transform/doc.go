/*
Package transform implements the source-to-source transformer (C1). It
parses a JS file with goja's own parser, walks the resulting AST to find
every function body and (optionally) call site, and splices a dispatcher
prologue/epilogue around each one through a Buffer — never through
direct string surgery on the source. Of two insertions at the same
offset, the one recorded later lands first in the output; WrapCalls
records an inner call before the call or await that encloses it, and
Transform runs WrapCalls before WrapFunctions, so wraps that start at
the same offset nest in the right order.

	result, err := transform.Transform(src, transform.Options{
		FilePath:      "/app/src/handlers.js",
		WrapCallSites: true,
	})

The walk covers function declarations, function expressions, arrow
functions, and class methods, plus the common statement and expression
forms used to reach them. Constructs outside that subset (generators,
destructuring, computed member calls) are left untouched, which only
narrows what gets instrumented — it never corrupts the output, since
nothing is spliced around a node the walker didn't visit.
*/
package transform
