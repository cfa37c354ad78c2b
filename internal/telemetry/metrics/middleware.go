package metrics

import "time"

// Timer measures one flush's duration and records it on completion.
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer starts a flush timer.
func NewTimer(m *Metrics) *Timer {
	return &Timer{start: time.Now(), metrics: m}
}

// Stop records the elapsed duration against FlushDuration.
func (t *Timer) Stop() {
	t.metrics.FlushDuration.Observe(time.Since(t.start).Seconds())
}
