/*
Package loader implements the module interceptor (C2).

	l := loader.New(matcher, logger, true)
	if err := l.Retrofit(ctx, "/app"); err != nil { ... }
	m, err := l.Load("/app/src/handlers.js")

Load resolves a module by absolute path, source-rewriting it through
internal/transform when the matcher counts it as application code and
leaving it untouched otherwise — dependency code gets instrumented at
the export boundary instead, by internal/dispatch's method-swap wrap
over the exports object Tag returns origins for.

Retrofit walks a source tree with fastwalk ahead of the first request so
steady-state latency doesn't pay a parse-and-splice cost.
*/
package loader
