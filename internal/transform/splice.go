package transform

import "sort"

// edit is one splice into the original source: either an insertion (start
// == end) or a replacement of src[start:end].
type edit struct {
	start, end int
	text       string
}

// Buffer accumulates byte-offset-keyed edits against a single source
// string and applies them in one pass, the "magic-string" pattern: edits
// are recorded in any order during the AST walk and applied in
// descending-offset order so an earlier edit's offsets are never
// invalidated by a later one.
type Buffer struct {
	src   string
	edits []edit
}

// NewBuffer creates a Buffer over src. src is never mutated; Apply
// returns a new string.
func NewBuffer(src string) *Buffer {
	return &Buffer{src: src}
}

// Insert records text to be inserted at offset, before whatever
// character currently sits there.
func (b *Buffer) Insert(offset int, text string) {
	b.edits = append(b.edits, edit{start: offset, end: offset, text: text})
}

// Replace records src[start:end] to be replaced with text.
func (b *Buffer) Replace(start, end int, text string) {
	b.edits = append(b.edits, edit{start: start, end: end, text: text})
}

// Apply produces the rewritten source. Overlapping edits are an input
// error from the caller (two wraps touching the same range); Apply does
// not attempt to detect or merge them, it simply applies in descending
// order, so callers must keep their own edits disjoint.
func (b *Buffer) Apply() string {
	if len(b.edits) == 0 {
		return b.src
	}
	ordered := make([]edit, len(b.edits))
	copy(ordered, b.edits)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].start != ordered[j].start {
			return ordered[i].start > ordered[j].start
		}
		return ordered[i].end > ordered[j].end
	})

	out := b.src
	for _, e := range ordered {
		if e.start < 0 || e.end > len(out) || e.start > e.end {
			continue
		}
		out = out[:e.start] + e.text + out[e.end:]
	}
	return out
}
