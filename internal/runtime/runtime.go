// Package runtime hosts the single shared goja.Runtime every traced
// request executes against, wires the dispatcher into its global
// object, and drives module resolution through the loader.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/tracelens/agent/internal/dispatch"
	"github.com/tracelens/agent/internal/loader"
	"github.com/tracelens/agent/internal/telemetry/logging"
)

// Config bounds how long a single Run is allowed to occupy the VM
// goroutine before it's interrupted.
type Config struct {
	Timeout time.Duration
}

// DefaultConfig mirrors a typical request-handler timeout.
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

// Runtime is the VM plus everything wired into its globals. Exactly one
// goroutine at a time must call Run — the shared goja.Runtime is not
// safe for concurrent use, per spec §5's single-threaded cooperative
// execution model.
type Runtime struct {
	vm         *goja.Runtime
	dispatcher *dispatch.Dispatcher
	loader     *loader.Loader
	logger     *logging.Logger
	cfg        Config

	mu        sync.Mutex
	interrupt chan struct{}
}

// New creates a Runtime, sets up __tlDispatch and the timer shims, and
// binds d to the new VM.
func New(cfg Config, d *dispatch.Dispatcher, l *loader.Loader, logger *logging.Logger) *Runtime {
	vm := goja.New()
	d.BindRuntime(vm)

	r := &Runtime{
		vm:         vm,
		dispatcher: d,
		loader:     l,
		logger:     logger,
		cfg:        cfg,
		interrupt:  make(chan struct{}),
	}
	r.setupGlobals()
	return r
}

func (r *Runtime) setupGlobals() {
	r.vm.Set("__tlDispatch", map[string]interface{}{
		"enter":      r.dispatcher.Enter,
		"exit":       r.dispatcher.Exit,
		"exitThrow":  r.dispatcher.ExitThrow,
		"result":     r.dispatcher.Result,
		"call":       r.dispatcher.Call,
		"callMethod": r.dispatcher.CallMethod,
		"await":      r.dispatcher.Await,
	})

	r.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		wrapped := r.dispatcher.WrapCallback(call.Arguments[0])
		fn, ok := goja.AssertFunction(wrapped)
		if !ok {
			return goja.Undefined()
		}
		// The VM is single-threaded and cooperative: without a real
		// host event loop driving deferred work, the callback runs
		// immediately rather than after the requested delay.
		if _, err := fn(goja.Undefined()); err != nil {
			r.logger.Warn(fmt.Sprintf("runtime: setTimeout callback error: %v", err))
		}
		return r.vm.ToValue(int64(0))
	})
	r.vm.Set("clearTimeout", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
}

// LoadModule resolves path through the loader, evaluates it against
// this Runtime's VM, tags its exports with origin marks, and — for
// dependency files the loader left untransformed — wraps its exports
// through the dispatcher's method-swap path.
func (r *Runtime) LoadModule(path string) (goja.Value, error) {
	m, err := r.loader.Load(path)
	if err != nil {
		return nil, err
	}

	val, err := r.vm.RunScript(path, m.Code)
	if err != nil {
		return nil, fmt.Errorf("runtime: evaluate %s: %w", path, err)
	}

	r.loader.Tag(r.vm, path, val, m.BodyTraced)
	if !m.BodyTraced {
		if obj, ok := val.(*goja.Object); ok {
			r.dispatcher.WrapDependencyExports(obj, path)
		}
	}
	return val, nil
}

// Run executes fn against the VM with Config.Timeout enforced via
// goja's own interrupt mechanism, generalizing the teacher sandbox's
// execute-with-timeout shape to an arbitrary host-supplied entry point
// rather than a single RunString call.
func (r *Runtime) Run(ctx context.Context, fn func(vm *goja.Runtime) (goja.Value, error)) (goja.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer := time.NewTimer(r.cfg.Timeout)
	defer timer.Stop()

	done := make(chan struct{})
	go func() {
		select {
		case <-timer.C:
			r.vm.Interrupt("tracelens: execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("tracelens: context cancelled")
		case <-done:
		}
	}()

	val, err := fn(r.vm)
	close(done)
	return val, err
}

// VM exposes the underlying goja.Runtime for callers that need direct
// access (the demo attaches the v8-mode profiler to it).
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}
