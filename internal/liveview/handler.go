package liveview

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local dev tool only, never exposed past localhost in practice
	},
}

// HandleConnection upgrades the request to a websocket, registers the
// connection with h, and blocks reading (and discarding) messages until
// the client disconnects — the viewer is receive-only, but a read loop is
// still required to notice the close and to answer pings.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("liveview: websocket upgrade failed")
		}
		return
	}

	h.register(conn)
	defer h.unregister(conn)

	conn.WriteJSON(map[string]interface{}{"type": "connected"})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
