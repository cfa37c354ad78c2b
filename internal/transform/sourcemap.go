package transform

import "github.com/go-sourcemap/sourcemap"

// SourceMap resolves a generated (bundled/minified) position back to an
// original source position, so the dispatcher can populate TraceEvent's
// nullable source-line field even when the instrumented file is a build
// artifact rather than hand-written application code.
type SourceMap struct {
	consumer *sourcemap.Consumer
}

// ParseSourceMap parses raw source map JSON (the contents of a .map file
// or a "//# sourceMappingURL=data:..." inline payload already decoded to
// bytes).
func ParseSourceMap(data []byte) (*SourceMap, error) {
	consumer, err := sourcemap.Parse("", data)
	if err != nil {
		return nil, err
	}
	return &SourceMap{consumer: consumer}, nil
}

// Original resolves a generated line/column to its original source file
// and line. ok is false when the position has no mapping, in which case
// the caller must leave TraceEvent's source line nullable rather than
// guess, per spec §3.
func (s *SourceMap) Original(genLine, genCol int) (file string, line int, ok bool) {
	if s == nil || s.consumer == nil {
		return "", 0, false
	}
	file, _, _, line, ok = s.consumer.Source(genLine, genCol)
	return file, line, ok
}
