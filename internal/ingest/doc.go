// Package ingest implements the HTTP middleware (C7): it opens a scope
// for each inbound request, runs the handler under it, and on response
// hands the scope's collected spans to the assembler for batching and
// flush.
//
// Three timers govern when a scope actually flushes:
//
//   - IdleMonitor watches the bus for enter/exit events on this scope
//     and force-flushes it if none arrive within TRACE_IDLE_FLUSH_MS,
//     catching backgrounded work a handler kicked off and forgot about.
//   - The linger window (TRACE_LINGER_AFTER_FINISH_MS) is a short,
//     unconditional wait after the handler returns if any span is still
//     open, giving fire-and-forget async work a last chance to close out
//     before the scope flushes anyway.
//   - The hard deadline (INGEST_HARD_DEADLINE_MS) cancels the request
//     context outright, bounding worst-case resource hold time
//     regardless of the other two.
//
// CaptureResponse installs a response body tee so a flush can attach a
// bounded response snapshot without re-reading the wire.
package ingest
