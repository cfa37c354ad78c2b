package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracelens/agent/internal/api/middleware"
	"github.com/tracelens/agent/internal/assembler"
	"github.com/tracelens/agent/internal/bus"
	"github.com/tracelens/agent/internal/dispatch"
	"github.com/tracelens/agent/internal/ingest"
	"github.com/tracelens/agent/internal/liveview"
	"github.com/tracelens/agent/internal/loader"
	"github.com/tracelens/agent/internal/match"
	"github.com/tracelens/agent/internal/profiler"
	"github.com/tracelens/agent/internal/runtime"
	"github.com/tracelens/agent/internal/sanitize"
	"github.com/tracelens/agent/internal/scope"
	"github.com/tracelens/agent/internal/telemetry/config"
	"github.com/tracelens/agent/internal/telemetry/logging"
	"github.com/tracelens/agent/internal/telemetry/metrics"
	"github.com/tracelens/agent/internal/transport"
)

func main() {
	cfg := config.LoadOrDefault()

	logger := logging.NewDefault()
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	}

	m := metrics.NewMetrics()
	matcher := match.NewMatcher(cfg.Trace.Include, cfg.Trace.Exclude)
	snt := sanitize.New(sanitize.DefaultConfig())
	store := scope.NewStore()
	eventBus := bus.New()

	if cfg.Trace.LogFunctionCalls {
		console := bus.NewConsole(logger)
		eventBus.Subscribe(console.Subscriber())
	}

	d := dispatch.New(store, eventBus, snt, m)
	ld := loader.New(matcher, logger, true).WithInstrument(cfg.Trace.Instrument)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	if len(cfg.Trace.Include) > 0 {
		if err := ld.Retrofit(rootCtx, "."); err != nil {
			logger.Warn("demo: retrofit pre-scan failed, continuing without it")
		}
	}

	rt := runtime.New(runtime.DefaultConfig(), d, ld, logger)

	if cfg.Trace.Mode == "v8" {
		prof := profiler.New(m, logger)
		prof.Attach(rt.VM(), cfg.Trace.SamplingMs)
		defer prof.Detach()
	}

	asm := assembler.New(assembler.Config{BatchSize: cfg.Ingest.BatchSize})

	var sender *transport.Sender
	if cfg.Egress.AppID != "" {
		sender = transport.NewSender(cfg.Egress, float64(cfg.RateLimit.RequestsPerSecond), logger, m)
	}

	hub := liveview.NewHub(logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.Use(ingest.Middleware(store, eventBus, cfg.Ingest, cfg.Trace, m))
	router.Use(ingest.CaptureResponse(1 << 20))
	router.Use(collectAndFlush(eventBus, asm, sender, hub, logger, cfg.Ingest))

	router.GET("/live", hub.HandleConnection)
	router.POST("/v1/evaluate", evaluateHandler(rt))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info("demo: listening on " + addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("demo: server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("demo: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// evaluateHandler loads the JS source in the request body as a module and
// returns the string form of the value its evaluation produced, purely to
// exercise the transform/dispatch/runtime pipeline end to end from an
// HTTP request. It does not call any function the module exports.
func evaluateHandler(rt *runtime.Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		src, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		f, err := os.CreateTemp("", "tracelens-demo-*.js")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create temp module"})
			return
		}
		defer os.Remove(f.Name())
		if _, err := f.Write(src); err != nil {
			f.Close()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write temp module"})
			return
		}
		f.Close()

		exported, err := rt.LoadModule(f.Name())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"exported": exported.String()})
	}
}

// collectAndFlush buffers the bus events belonging to the current
// request's scope and, once ingest.Middleware decides to flush, hands
// them to the assembler and onward to the live viewer and egress
// transport. actionID and sessionID are read from the request's headers,
// not derived from the scope id: per spec §6 they're distinct identities
// from the scope id, which is purely an internal trace-grouping key.
func collectAndFlush(b *bus.Bus, asm *assembler.Assembler, sender *transport.Sender, hub *liveview.Hub, logger *logging.Logger, ingestCfg config.IngestConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := ingest.ScopeFromContext(c)
		if !ok {
			c.Next()
			return
		}

		actionID := c.GetHeader(ingestCfg.ActionHeader)
		sessionID := c.GetHeader(ingestCfg.SessionHeader)

		var mu sync.Mutex
		var events []bus.Event
		subID := b.Subscribe(func(e bus.Event) {
			if e.ScopeID != sc.ID {
				return
			}
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		})

		ingest.WithFlush(c, func(sc *scope.Scope) {
			b.Unsubscribe(subID)
			mu.Lock()
			collected := make([]bus.Event, len(events))
			copy(collected, events)
			mu.Unlock()

			batches := asm.Assemble(string(sc.ID), collected)
			for _, batch := range batches {
				hub.Broadcast(string(sc.ID), batch)
			}
			if sender == nil || len(batches) == 0 {
				return
			}

			entries, err := transport.BuildTraceEntries(batches, actionID, time.Now().UnixMilli())
			if err != nil {
				logger.Warn("demo: failed to build trace entries")
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sender.Send(ctx, sessionID, entries); err != nil {
				logger.Warn("demo: egress send failed")
			}
		})

		c.Next()
	}
}
