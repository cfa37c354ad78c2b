/*
Package scope implements the span/scope engine (C5): a per-logical-request
task-local store holding the active span stack, modeled as an explicit
save/restore stack rather than a true OS-level task-local, because the
whole system runs cooperatively on a single goroutine (see Store).

	store := scope.NewStore()
	store.Open(scopeID, func(sc *scope.Scope) {
		span := sc.Enter()
		defer sc.Exit(span)
		// ... body ...
	})

A Scope must never be shared between two independently flushed requests;
internal/ingest creates one Scope per tagged HTTP request and disposes it
at flush regardless of spans still open (see internal/assembler's
balancing pass for how those are closed).
*/
package scope
