// Package errs holds the sentinel errors swallowed or logged at the boundaries
// named in the error-handling design: transform, dispatch, sanitize, transport.
package errs

import "errors"

var (
	// ErrTransformFailed marks a module whose source could not be rewritten.
	// The caller falls back to the untransformed source; this error is logged,
	// never propagated to the module load.
	ErrTransformFailed = errors.New("transform: rewrite failed")

	// ErrAlreadyWrapped marks a no-op re-wrap attempt.
	ErrAlreadyWrapped = errors.New("transform: body already wrapped")

	// ErrDispatchInternal marks a failure inside the dispatcher's own bookkeeping,
	// distinct from an error thrown by the wrapped call itself.
	ErrDispatchInternal = errors.New("dispatch: internal error")

	// ErrNoActiveScope means the dispatcher was invoked with no task-local scope
	// installed; calls still execute, but unobserved.
	ErrNoActiveScope = errors.New("scope: no active scope")

	// ErrSanitizeFailed marks a value that could not be snapshotted; the caller
	// substitutes a placeholder string and keeps going.
	ErrSanitizeFailed = errors.New("sanitize: value could not be serialized")

	// ErrTransportFailed marks a failed egress POST. Never retried, never
	// buffered to disk.
	ErrTransportFailed = errors.New("transport: egress request failed")

	// ErrCircuitOpen re-exports the breaker's open-circuit condition so
	// transport callers can errors.Is against a single package.
	ErrCircuitOpen = errors.New("transport: circuit breaker open")

	// ErrScopeClosed means a flush already ran for this scope id; a late event
	// arriving afterward is dropped.
	ErrScopeClosed = errors.New("scope: already flushed")
)
