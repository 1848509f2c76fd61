package wslive

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/coveline/calldeck/internal/livecalls"
	"github.com/coveline/calldeck/internal/wsbase"
)

// Client represents one connected dashboard. It implements
// livecalls.Receiver; the hub calls SendSnapshot/SendError from under its
// own lock, so both enqueue without blocking and drop on overflow.
type Client struct {
	conn   *websocket.Conn
	server *Server
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	mu                 sync.Mutex
	includeAgentFilter *regexp.Regexp // nil = match all
	excludeAgentFilter *regexp.Regexp // nil = exclude none
}

func newClient(conn *websocket.Conn, server *Server) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:   conn,
		server: server,
		send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer c.cancel()
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) writePump() {
	defer func() { _ = c.conn.Close(websocket.StatusNormalClosure, "") }()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.SendError("invalid JSON")
		return
	}

	switch msg.Type {
	case msgRefresh:
		c.server.hub.Refresh()
	case msgFilter:
		c.handleFilter(msg)
	default:
		c.SendError("unknown message type: " + msg.Type)
	}
}

func (c *Client) handleFilter(msg clientMessage) {
	include, exclude, err := wsbase.CompileAgentFilters(msg.IncludeAgentFilter, msg.ExcludeAgentFilter)
	if err != nil {
		c.SendError(err.Error())
		return
	}
	c.mu.Lock()
	c.includeAgentFilter = include
	c.excludeAgentFilter = exclude
	c.mu.Unlock()
}

// SendSnapshot enqueues a live-calls-update for this client, scoped by its
// agent filter if one is set.
func (c *Client) SendSnapshot(snapshot livecalls.Snapshot) {
	c.mu.Lock()
	include := c.includeAgentFilter
	exclude := c.excludeAgentFilter
	c.mu.Unlock()

	if include != nil || exclude != nil {
		filtered := make(livecalls.Snapshot, 0, len(snapshot))
		for _, rec := range snapshot {
			if wsbase.PassesFilter(rec.AgentName, include, exclude) {
				filtered = append(filtered, rec)
			}
		}
		snapshot = filtered
	}

	c.sendJSON(newUpdateMessage(snapshot))
}

// SendError enqueues a live-calls-error for this client.
func (c *Client) SendError(msg string) {
	c.sendJSON(newErrorMessage(msg))
}

func (c *Client) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("wslive: failed to marshal message")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Msg("wslive: dropping message for slow client")
	}
}
