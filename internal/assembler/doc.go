// Package assembler implements C8: it takes the unordered event list a
// scope collected over its lifetime and turns it into the ordered,
// size-bounded batches the egress transport sends.
//
// Three passes run in sequence, each pure over its input:
//
//   - balance appends a synthetic, unawaited exit for every enter left
//     without a matching exit — an abandoned un-awaited call or a crashed
//     async continuation.
//   - reorder rebuilds the span tree from parent-id edges and
//     re-serializes it depth-first, so the output is a valid
//     linearization of the tree regardless of the physical emission
//     order at runtime.
//   - split divides the reordered list into fixed-size chunks tagged
//     with {scope id, chunk index, total chunks}.
package assembler
