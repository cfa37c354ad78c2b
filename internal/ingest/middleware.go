// Package ingest implements the HTTP middleware (C7): it opens a scope
// for each inbound request, runs the handler under it, and on response
// hands the scope's collected spans to the assembler for batching and
// flush.
package ingest

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracelens/agent/internal/bus"
	"github.com/tracelens/agent/internal/scope"
	"github.com/tracelens/agent/internal/telemetry/config"
	"github.com/tracelens/agent/internal/telemetry/ids"
	"github.com/tracelens/agent/internal/telemetry/metrics"
)

// FlushFunc hands a finished (or forcibly closed) scope's spans off to
// the assembler/transport pipeline. It must not block the request.
type FlushFunc func(sc *scope.Scope)

const (
	scopeKey     = "tracelens.scope"
	flushFuncKey = "tracelens.flushFunc"
)

// Middleware creates the gin.HandlerFunc that opens a scope for every
// request carrying both a session identifier header and an action
// identifier header, runs the rest of the chain under it, and flushes
// once the handler returns — plus a linger window per spec §6's
// TRACE_LINGER_AFTER_FINISH_MS, in case the handler leaves unawaited
// work still running past its own response, and a hard deadline that
// cancels the request context outright if that work never settles. A
// request missing either header passes through untouched, per spec
// §4.7: no scope, no collection, no flush.
func Middleware(store *scope.Store, b *bus.Bus, ingestCfg config.IngestConfig, traceCfg config.TraceConfig, m *metrics.Metrics) gin.HandlerFunc {
	deadline := time.Duration(ingestCfg.HardDeadlineMs) * time.Millisecond
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	linger := time.Duration(traceCfg.LingerAfterFinishMs) * time.Millisecond
	idle := time.Duration(traceCfg.IdleFlushMs) * time.Millisecond

	return func(c *gin.Context) {
		if c.GetHeader(ingestCfg.SessionHeader) == "" || c.GetHeader(ingestCfg.ActionHeader) == "" {
			c.Next()
			return
		}

		requestStart := time.Now()
		startHeader := ingestCfg.StartHeader
		startValue := c.GetHeader(startHeader)
		scopeID := ids.NewScopeID(startValue)
		sc := scope.New(scopeID)
		sc.SetClockOffset(clockSkew(startValue, requestStart))
		if m != nil {
			m.ScopesOpened.Inc()
			m.ScopeActive.Inc()
		}

		flushed := false
		flush := func() {
			if flushed {
				return
			}
			flushed = true
			if m != nil {
				m.ScopeActive.Dec()
				m.ScopesFlushed.Inc()
			}
			if v, ok := c.Get(flushFuncKey); ok {
				if fn, ok := v.(FlushFunc); ok {
					fn(sc)
				}
			}
		}

		monitor := NewIdleMonitor(idle, func(*scope.Scope) { flush() })
		subID := b.Subscribe(func(e bus.Event) {
			if e.ScopeID == scopeID {
				monitor.Touch(sc)
			}
		})
		defer b.Unsubscribe(subID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), deadline)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set(scopeKey, sc)
		store.Run(sc, func() {
			c.Next()
		})

		if linger > 0 && len(sc.OpenSpans()) > 0 {
			time.Sleep(linger)
		}

		monitor.Cancel(sc)
		flush()
	}
}

// clockSkew computes the offset between the caller-supplied request-start
// header (milliseconds since epoch) and the local wall clock captured at
// request start, per spec §4.7 point 1. An empty or unparsable header
// yields zero offset — the same fallback NewScopeID uses for the same
// header when it can't be trusted as a timestamp.
func clockSkew(startHeader string, localStart time.Time) time.Duration {
	if startHeader == "" {
		return 0
	}
	ms, err := strconv.ParseInt(startHeader, 10, 64)
	if err != nil || ms <= 0 {
		return 0
	}
	return time.UnixMilli(ms).Sub(localStart)
}

// WithFlush attaches the FlushFunc this request should use when
// Middleware's own flush step runs. Call it from a handler or an
// earlier middleware, before control returns to Middleware.
func WithFlush(c *gin.Context, fn FlushFunc) {
	c.Set(flushFuncKey, fn)
}

// ScopeFromContext retrieves the scope Middleware opened for this
// request.
func ScopeFromContext(c *gin.Context) (*scope.Scope, bool) {
	v, ok := c.Get(scopeKey)
	if !ok {
		return nil, false
	}
	sc, ok := v.(*scope.Scope)
	return sc, ok
}
