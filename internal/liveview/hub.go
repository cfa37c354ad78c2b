// Package liveview is a passive, optional dev-time viewer: it streams
// each scope's assembled batches over a websocket as the Assembler
// produces them, without changing ingestion behavior in any way — it is
// wired in after the Assembler, alongside the egress transport, as a
// second consumer of the same batches.
package liveview

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tracelens/agent/internal/assembler"
	"github.com/tracelens/agent/internal/telemetry/logging"
)

// Hub tracks connected viewer sockets and fans batches out to all of
// them.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger *logging.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool), logger: logger}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	conn.Close()
}

// Broadcast sends batch as JSON to every connected viewer, dropping any
// connection that errors on write.
func (h *Hub) Broadcast(scopeID string, batch assembler.Batch) {
	msg := map[string]interface{}{
		"type":    "batch",
		"scopeId": scopeID,
		"batch":   batch,
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(msg); err != nil {
			h.unregister(c)
		}
	}
}
