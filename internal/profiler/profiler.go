// Package profiler implements the optional CPU sampling profiler named in
// §6's `mode=v8` configuration knob. spec.md §1 treats it as "not
// specified here beyond the interfaces" — this package is that thin
// contract: a runtime/pprof-backed sampling loop exposed as a single
// Attach call, reporting sample durations through
// internal/telemetry/metrics rather than as a fully designed subsystem.
package profiler

import (
	"context"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/tracelens/agent/internal/telemetry/logging"
	"github.com/tracelens/agent/internal/telemetry/metrics"
)

// discardWriter satisfies io.Writer for pprof.StartCPUProfile without
// retaining the profile — v8-mode sampling here only measures that
// sampling itself is happening (via the histogram), not the profile's
// contents, per the Non-goal on a fully specified profiler subsystem.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Profiler runs a periodic CPU-sampling loop while attached to a VM.
type Profiler struct {
	metrics *metrics.Metrics
	logger  *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Profiler reporting through m and logging through logger.
func New(m *metrics.Metrics, logger *logging.Logger) *Profiler {
	return &Profiler{metrics: m, logger: logger}
}

// Attach starts sampling at intervalMs intervals. vm identifies which
// runtime this sampling loop is conceptually attached to; goja exposes no
// per-runtime profiling hook, so sampling runs process-wide via
// runtime/pprof while vm is alive. Calling Attach again replaces any
// previously running loop.
func (p *Profiler) Attach(vm *goja.Runtime, intervalMs int) {
	if intervalMs <= 0 {
		intervalMs = 100
	}
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.mu.Unlock()

	go p.loop(ctx, time.Duration(intervalMs)*time.Millisecond)
}

// Detach stops the sampling loop started by Attach, if any.
func (p *Profiler) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Profiler) loop(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		if err := pprof.StartCPUProfile(discardWriter{}); err != nil {
			if p.logger != nil {
				p.logger.Warn("profiler: start sample failed, retrying next interval")
			}
			time.Sleep(interval)
			continue
		}

		select {
		case <-ctx.Done():
			pprof.StopCPUProfile()
			return
		case <-time.After(interval):
		}
		pprof.StopCPUProfile()

		if p.metrics != nil {
			p.metrics.ProfilerSamples.Observe(time.Since(start).Seconds())
		}
	}
}
