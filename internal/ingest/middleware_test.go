package ingest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens/agent/internal/bus"
	"github.com/tracelens/agent/internal/scope"
	"github.com/tracelens/agent/internal/telemetry/config"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		SessionHeader:  "x-bug-session-id",
		ActionHeader:   "x-bug-action-id",
		StartHeader:    "x-bug-request-start",
		HardDeadlineMs: 5000,
	}
}

func TestMiddlewareOpensAndFlushesScope(t *testing.T) {
	router := setupTestRouter()
	store := scope.NewStore()
	b := bus.New()
	ingestCfg := testIngestConfig()
	traceCfg := config.TraceConfig{LingerAfterFinishMs: 0, IdleFlushMs: 0}

	var flushedWith *scope.Scope
	router.Use(Middleware(store, b, ingestCfg, traceCfg, nil))
	router.GET("/test", func(c *gin.Context) {
		WithFlush(c, func(sc *scope.Scope) { flushedWith = sc })
		sc, ok := ScopeFromContext(c)
		require.True(t, ok)
		assert.NotNil(t, sc)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(ingestCfg.SessionHeader, "sess-1")
	req.Header.Set(ingestCfg.ActionHeader, "act-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, flushedWith)
}

func TestMiddlewareWithoutFlushFuncDoesNotPanic(t *testing.T) {
	router := setupTestRouter()
	store := scope.NewStore()
	b := bus.New()
	ingestCfg := testIngestConfig()
	traceCfg := config.TraceConfig{LingerAfterFinishMs: 0, IdleFlushMs: 0}

	router.Use(Middleware(store, b, ingestCfg, traceCfg, nil))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(ingestCfg.SessionHeader, "sess-1")
	req.Header.Set(ingestCfg.ActionHeader, "act-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

// TestMiddlewarePassesThroughWithoutSessionHeader covers spec §4.7
// scenario 5: a request missing the session header must trigger no scope,
// no collection, and no flush — just pass through to the handler.
func TestMiddlewarePassesThroughWithoutSessionHeader(t *testing.T) {
	router := setupTestRouter()
	store := scope.NewStore()
	b := bus.New()
	ingestCfg := testIngestConfig()
	traceCfg := config.TraceConfig{LingerAfterFinishMs: 0, IdleFlushMs: 0}

	flushCalled := false
	router.Use(Middleware(store, b, ingestCfg, traceCfg, nil))
	router.POST("/v1/evaluate", func(c *gin.Context) {
		WithFlush(c, func(sc *scope.Scope) { flushCalled = true })
		_, ok := ScopeFromContext(c)
		assert.False(t, ok, "no scope should be opened without both headers")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", nil)
	req.Header.Set(ingestCfg.ActionHeader, "act-1") // session header deliberately absent
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, flushCalled, "a request missing the session header must not be flushed")
}

func TestClockSkewShiftsOffsetFromHeader(t *testing.T) {
	localStart := time.Now()
	headerTime := localStart.Add(3 * time.Second)
	offset := clockSkew(strconv.FormatInt(headerTime.UnixMilli(), 10), localStart)
	assert.InDelta(t, float64(3*time.Second), float64(offset), float64(50*time.Millisecond))
}

func TestClockSkewIsZeroWithoutHeader(t *testing.T) {
	assert.Equal(t, time.Duration(0), clockSkew("", time.Now()))
	assert.Equal(t, time.Duration(0), clockSkew("not-a-number", time.Now()))
}

func TestCaptureResponseSnapshotsBody(t *testing.T) {
	router := setupTestRouter()
	router.Use(CaptureResponse(1024))

	var gotBody []byte
	var gotMime string
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"hello": "world"})
		body, mime, ok := ResponseSnapshot(c)
		require.True(t, ok)
		gotBody = body
		gotMime = mime
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(gotBody), "world")
	assert.True(t, IsTextual(gotMime))
}

func TestIsTextualRecognizesCommonTypes(t *testing.T) {
	assert.True(t, IsTextual("text/plain"))
	assert.True(t, IsTextual("application/json; charset=utf-8"))
	assert.False(t, IsTextual("image/png"))
	assert.False(t, IsTextual(""))
}
