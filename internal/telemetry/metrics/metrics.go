// Package metrics exposes Prometheus counters and histograms for the
// tracer's own operation — span volume, balancing, flush throughput, and
// egress health — the way the teacher's monitoring package exposes HTTP
// request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the tracer.
type Metrics struct {
	SpansOpened      prometheus.Counter
	SpansClosed      prometheus.Counter
	SpansForceClosed prometheus.Counter
	UnawaitedSpans   prometheus.Counter

	EventsEmitted  prometheus.Counter
	EventsFiltered prometheus.Counter

	ScopesOpened prometheus.Counter
	ScopesFlushed prometheus.Counter
	ScopeActive  prometheus.Gauge

	FlushBatches    prometheus.Counter
	FlushDuration   prometheus.Histogram
	TransportErrors prometheus.Counter

	ProfilerSamples prometheus.Histogram
}

// NewMetrics creates and registers all tracer metrics against the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		SpansOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_spans_opened_total",
			Help: "Total spans opened (enter emitted).",
		}),
		SpansClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_spans_closed_total",
			Help: "Total spans closed by a real exit event.",
		}),
		SpansForceClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_spans_force_closed_total",
			Help: "Spans closed by the assembler's synthetic exit balancing.",
		}),
		UnawaitedSpans: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_spans_unawaited_total",
			Help: "Spans that closed via the un-awaited fast path.",
		}),
		EventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_events_emitted_total",
			Help: "Total enter/exit events emitted on the bus.",
		}),
		EventsFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_events_filtered_total",
			Help: "Events dropped by the declarative filter layer.",
		}),
		ScopesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_scopes_opened_total",
			Help: "Total request scopes opened by the middleware.",
		}),
		ScopesFlushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_scopes_flushed_total",
			Help: "Total request scopes flushed.",
		}),
		ScopeActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tracelens_scopes_active",
			Help: "Currently open (un-flushed) request scopes.",
		}),
		FlushBatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_flush_batches_total",
			Help: "Total trace-batch payloads sent to the ingestion endpoint.",
		}),
		FlushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracelens_flush_duration_seconds",
			Help:    "Time spent assembling and sending one scope's flush.",
			Buckets: prometheus.DefBuckets,
		}),
		TransportErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracelens_transport_errors_total",
			Help: "Egress POSTs that failed or were rejected by the circuit breaker.",
		}),
		ProfilerSamples: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracelens_profiler_sample_seconds",
			Help:    "CPU sampling profiler interval durations, when mode=v8.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
