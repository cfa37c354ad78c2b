package transform

import (
	"fmt"

	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"
)

// Options configures a single Transform call.
type Options struct {
	// FilePath is the file's path as it should appear in emitted
	// TraceEvents and dispatcher calls.
	FilePath string
	// WrapCallSites enables the call-site wrap (calls.go), needed to
	// detect an unawaited thenable or query builder returned from a call
	// the application never awaits.
	WrapCallSites bool
}

// Result is a successfully transformed source file.
type Result struct {
	Code string
	// Map is always nil: Transform neither reads an input source map nor
	// produces one for the rewritten code.
	Map *SourceMap
}

// Transform parses src as a single JS source file and rewrites every
// function body and (optionally) call site to route through the
// dispatcher, per spec §4.1. It never mutates src; Result.Code is an
// independent string built from a splice Buffer.
func Transform(src string, opts Options) (*Result, error) {
	fset := &file.FileSet{}
	program, err := parser.ParseFile(fset, opts.FilePath, src, 0)
	if err != nil {
		return nil, fmt.Errorf("transform: parse %s: %w", opts.FilePath, err)
	}

	buf := NewBuffer(src)
	// Call sites first: of two insertions at the same offset, the one
	// recorded later ends up first in the output, so a return-value or
	// concise-body wrap encloses a call-site wrap starting where it does.
	if opts.WrapCallSites {
		WrapCalls(program, fset, buf, src, opts.FilePath)
	}
	WrapFunctions(program, fset, buf, opts.FilePath)

	return &Result{Code: buf.Apply()}, nil
}
