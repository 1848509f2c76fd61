package wsbase

import (
	"net/http"

	"nhooyr.io/websocket"
)

// AcceptWebSocket upgrades an HTTP request to a WebSocket connection,
// checking the Origin header against the configured patterns. An empty
// pattern list falls back to the library's same-host check.
func AcceptWebSocket(w http.ResponseWriter, r *http.Request, originPatterns []string) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
}
