package wslive

import "github.com/coveline/calldeck/internal/livecalls"

// Wire protocol for the live-calls WebSocket endpoint. Server → client:
// live-calls-update and live-calls-error. Client → server: refresh-live-calls
// and filter-calls. Connection lifecycle itself drives attach/detach; there
// is no handshake.

const (
	msgUpdate  = "live-calls-update"
	msgError   = "live-calls-error"
	msgRefresh = "refresh-live-calls"
	msgFilter  = "filter-calls"
)

type clientMessage struct {
	Type               string `json:"type"`
	IncludeAgentFilter string `json:"includeAgentFilter,omitempty"`
	ExcludeAgentFilter string `json:"excludeAgentFilter,omitempty"`
}

// updateMessage always carries a calls array, empty included: a dashboard
// with zero live calls must still render its empty state.
type updateMessage struct {
	Type  string             `json:"type"`
	Calls livecalls.Snapshot `json:"calls"`
}

type errorMessage struct {
	Type  string    `json:"type"`
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
}

func newUpdateMessage(calls livecalls.Snapshot) updateMessage {
	if calls == nil {
		calls = livecalls.Snapshot{}
	}
	return updateMessage{Type: msgUpdate, Calls: calls}
}

func newErrorMessage(msg string) errorMessage {
	return errorMessage{Type: msgError, Error: errorBody{Message: msg}}
}
