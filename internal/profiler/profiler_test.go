package profiler

import (
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"

	"github.com/tracelens/agent/internal/telemetry/logging"
	"github.com/tracelens/agent/internal/telemetry/metrics"
)

func TestAttachAndDetachLifecycle(t *testing.T) {
	m := metrics.NewMetrics()
	p := New(m, logging.NewDefault())

	p.Attach(goja.New(), 15)
	time.Sleep(60 * time.Millisecond)
	p.Detach()

	// a second Detach on an already-stopped loop must not panic.
	assert.NotPanics(t, func() { p.Detach() })
}

func TestAttachToleratesNilMetricsAndLogger(t *testing.T) {
	p := New(nil, nil)
	assert.NotPanics(t, func() {
		p.Attach(goja.New(), 10)
		time.Sleep(20 * time.Millisecond)
		p.Detach()
	})
}

func TestReattachReplacesPreviousLoop(t *testing.T) {
	p := New(nil, logging.NewDefault())
	p.Attach(goja.New(), 10)
	p.Attach(goja.New(), 10) // must cancel the first loop, not leak it
	time.Sleep(20 * time.Millisecond)
	p.Detach()
}
