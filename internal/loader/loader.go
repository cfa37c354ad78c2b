// Package loader implements the module interceptor (C2): it sits between
// the runtime's module resolution and the code that actually executes,
// deciding for every required file whether to hand it to the transformer
// for a full source rewrite (application code) or to the dependency
// wrapper for a shallow method-swap (everything else), and caching the
// result so a module required twice is never re-transformed.
package loader

import (
	"fmt"
	"os"
	"sync"

	"github.com/dop251/goja"

	"github.com/tracelens/agent/internal/match"
	"github.com/tracelens/agent/internal/origin"
	"github.com/tracelens/agent/internal/telemetry/logging"
	"github.com/tracelens/agent/internal/transform"
)

// Module is one resolved, loaded source file.
type Module struct {
	Path         string
	Code         string
	BodyTraced   bool // true once transform.Transform succeeded on this file
	TransformErr error
}

// Loader resolves, transforms or wraps, and caches modules by absolute
// path.
type Loader struct {
	mu      sync.RWMutex
	cache   map[string]*Module
	matcher *match.Matcher
	logger  *logging.Logger

	wrapCallSites bool
	instrument    bool
}

// New creates a Loader. matcher decides app-vs-dependency per spec §3;
// wrapCallSites is forwarded to every transform.Transform call. instrument
// is §6's top-level on/off switch for source rewriting: when false, app
// code loads unmodified and is tagged and instrumented the same shallow,
// export-boundary way dependency code is.
func New(matcher *match.Matcher, logger *logging.Logger, wrapCallSites bool) *Loader {
	return &Loader{
		cache:         make(map[string]*Module),
		matcher:       matcher,
		logger:        logger,
		wrapCallSites: wrapCallSites,
		instrument:    true,
	}
}

// WithInstrument overrides the instrument switch New defaults to true,
// returning l for chaining.
func (l *Loader) WithInstrument(instrument bool) *Loader {
	l.instrument = instrument
	return l
}

// Load resolves path, returning a cached Module if one exists. App code
// is source-rewritten by transform.Transform; everything else is
// returned unmodified and left for internal/dispatch's
// WrapDependencyExports method swap, which runtime.LoadModule applies
// after evaluation, to instrument instead.
func (l *Loader) Load(path string) (*Module, error) {
	l.mu.RLock()
	if m, ok := l.cache[path]; ok {
		l.mu.RUnlock()
		return m, nil
	}
	l.mu.RUnlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}

	m := &Module{Path: path, Code: string(raw)}
	if l.instrument && l.matcher.IsApp(path) {
		result, terr := transform.Transform(string(raw), transform.Options{
			FilePath:      path,
			WrapCallSites: l.wrapCallSites,
		})
		if terr != nil {
			m.TransformErr = terr
			l.logger.Warn(fmt.Sprintf("loader: transform failed for %s, loading untraced: %v", path, terr))
		} else {
			m.Code = result.Code
			m.BodyTraced = true
		}
	}

	l.mu.Lock()
	l.cache[path] = m
	l.mu.Unlock()
	return m, nil
}

// Tag runs the origin tagger over a module's exported value once the
// runtime has evaluated it, so functions the transformer didn't reach
// (dependency exports, values returned from native bindings) still carry
// an Origin mark for the dispatcher to read.
func (l *Loader) Tag(vm *goja.Runtime, path string, exports goja.Value, bodyTraced bool) {
	origin.Walk(vm, exports, path, l.matcher, bodyTraced)
}

// Invalidate drops path from the cache, forcing the next Load to re-read
// and re-transform it from disk.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, path)
}
