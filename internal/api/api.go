// Package api exposes the REST side of the dashboard: agent browsing, call
// history, and outbound call placement, all proxied to the upstream provider.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/coveline/calldeck/internal/agents"
	"github.com/coveline/calldeck/internal/livecalls"
	"github.com/coveline/calldeck/internal/upstream"
	"github.com/coveline/calldeck/internal/wsbase"
)

// Provider is the slice of the upstream client the REST layer needs.
type Provider interface {
	ListConversations(ctx context.Context) ([]upstream.Conversation, error)
	GetConversation(ctx context.Context, id string) (*upstream.Conversation, error)
	CreateCall(ctx context.Context, req upstream.CreateCallRequest) (*upstream.Call, error)
}

// Handler bundles the REST route handlers.
type Handler struct {
	registry *agents.Registry
	provider Provider
}

// NewRouter builds the full HTTP surface: REST under /api, health at
// /healthz, and the WebSocket endpoint at /ws.
func NewRouter(registry *agents.Registry, provider Provider, ws http.Handler) http.Handler {
	h := &Handler{registry: registry, provider: provider}

	r := chi.NewRouter()
	r.Get("/healthz", h.health)
	r.Handle("/ws", ws)
	r.Route("/api", func(r chi.Router) {
		r.Get("/agents", h.listAgents)
		r.Get("/calls", h.listCalls)
		r.Get("/calls/{id}", h.getCall)
		r.Post("/calls", h.createCall)
	})

	return wsbase.CorsHandler(r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	list, err := h.registry.Agents(r.Context())
	if err != nil {
		upstreamError(w, "list agents", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": list})
}

// historyEntry is one row of the call-history view. Duration is zero when
// the provider reported no usable timestamps.
type historyEntry struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agentId"`
	AgentName   string    `json:"agentName"`
	PhoneNumber string    `json:"phoneNumber"`
	Status      string    `json:"status"`
	StartTime   time.Time `json:"startTime"`
	Duration    int64     `json:"duration"`
	Live        bool      `json:"live"`
}

func (h *Handler) listCalls(w http.ResponseWriter, r *http.Request) {
	convs, err := h.provider.ListConversations(r.Context())
	if err != nil {
		upstreamError(w, "list calls", err)
		return
	}

	entries := make([]historyEntry, 0, len(convs))
	for _, conv := range convs {
		entries = append(entries, toHistoryEntry(conv))
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": entries})
}

func (h *Handler) getCall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := h.provider.GetConversation(r.Context(), id)
	if err != nil {
		upstreamError(w, "get call", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"call":       toHistoryEntry(*conv),
		"transcript": conv.Transcript,
	})
}

type createCallRequest struct {
	AgentID          string            `json:"agentId"`
	ToNumber         string            `json:"toNumber"`
	DynamicVariables map[string]string `json:"dynamicVariables,omitempty"`
}

func (h *Handler) createCall(w http.ResponseWriter, r *http.Request) {
	var req createCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}
	if req.ToNumber == "" {
		writeError(w, http.StatusBadRequest, "toNumber is required")
		return
	}

	call, err := h.provider.CreateCall(r.Context(), upstream.CreateCallRequest{
		AgentID:          req.AgentID,
		ToNumber:         req.ToNumber,
		DynamicVariables: req.DynamicVariables,
	})
	if err != nil {
		upstreamError(w, "create call", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"call": call})
}

func toHistoryEntry(conv upstream.Conversation) historyEntry {
	phone := conv.FromNumber
	if phone == "" {
		phone = conv.CallerNumber
	}
	if phone == "" {
		phone = livecalls.UnknownNumber
	}

	epoch := conv.StartTimestamp
	if epoch == 0 {
		epoch = conv.BeginTimestamp
	}
	var start time.Time
	if epoch > 0 {
		start = time.Unix(epoch, 0)
	}

	var duration int64
	if epoch > 0 && conv.EndTimestamp >= epoch {
		duration = conv.EndTimestamp - epoch
	}

	return historyEntry{
		ID:          conv.ID,
		AgentID:     conv.AgentID,
		AgentName:   conv.AgentName,
		PhoneNumber: phone,
		Status:      conv.Status,
		StartTime:   start,
		Duration:    duration,
		Live:        livecalls.IsLive(conv.Status),
	}
}

func upstreamError(w http.ResponseWriter, op string, err error) {
	log.Warn().Err(err).Str("op", op).Msg("upstream request failed")
	writeError(w, http.StatusBadGateway, "upstream request failed")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("api: failed to encode response")
	}
}
