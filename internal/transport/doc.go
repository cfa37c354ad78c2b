// Package transport is the egress half of the pipeline: it takes the
// assembler's batches for a flushed scope, wraps them in the §6 envelope
// shape, and POSTs them to the ingestion API through a rate-limited,
// circuit-broken, retrying HTTP client.
//
// Failures here are always swallowed per §7 — the caller logs and moves
// on, never retries beyond the client's own policy, never buffers to
// disk.
package transport
