package wslive

import (
	"net/http"
	"strings"

	"github.com/coveline/calldeck/internal/livecalls"
	"github.com/coveline/calldeck/internal/wsbase"
)

// Server upgrades dashboard connections and hands them to the hub, which
// owns the client registry and the poll lifecycle.
type Server struct {
	hub            *livecalls.Hub
	authToken      string
	originPatterns []string
}

// NewServer creates the live-calls WebSocket server.
func NewServer(hub *livecalls.Hub, authToken string, originPatterns []string) *Server {
	return &Server{
		hub:            hub,
		authToken:      strings.TrimSpace(authToken),
		originPatterns: originPatterns,
	}
}

// ServeHTTP handles WebSocket upgrade requests at /ws. The connection's
// lifetime brackets the client's registration with the hub: attach on
// upgrade, detach when either pump exits.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !wsbase.IsAuthorizedRequest(s.authToken, r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := wsbase.AcceptWebSocket(w, r, s.originPatterns)
	if err != nil {
		return
	}

	client := newClient(conn, s)
	s.hub.Attach(client)
	defer s.hub.Detach(client)

	client.run()
}
