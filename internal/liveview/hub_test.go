package liveview

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens/agent/internal/assembler"
	"github.com/tracelens/agent/internal/bus"
)

func TestHandleConnectionAndBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	hub := NewHub(nil)
	router.GET("/ws", hub.HandleConnection)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var welcome map[string]interface{}
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "connected", welcome["type"])

	// give the server a moment to register the connection before broadcasting.
	time.Sleep(10 * time.Millisecond)
	hub.Broadcast("scope1", assembler.Batch{ScopeID: "scope1", Index: 0, Total: 1, Events: []bus.Event{{Phase: bus.PhaseEnter}}})

	var received map[string]interface{}
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, "batch", received["type"])
	assert.Equal(t, "scope1", received["scopeId"])
}

func TestBroadcastWithNoConnectionsIsNoOp(t *testing.T) {
	hub := NewHub(nil)
	assert.NotPanics(t, func() {
		hub.Broadcast("scope1", assembler.Batch{})
	})
}
