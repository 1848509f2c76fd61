// Package client is the Go sync adapter for the calldeck live-calls feed.
// It maintains one shared WebSocket connection per process and exposes the
// latest snapshot plus connection status to any number of consumers; UI code
// reads State() or drains Updates() and never touches the transport.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/coveline/calldeck/internal/livecalls"
)

// Reconnect budget: a small fixed number of retries with a fixed delay.
// Vars rather than consts so tests can shorten the delay.
var (
	maxReconnectAttempts = 5
	reconnectDelay       = 2 * time.Second
)

// State is the value bundle exposed to consumers. LiveCalls is replaced
// wholesale on every update; it is never mutated in place.
type State struct {
	LiveCalls livecalls.Snapshot
	Connected bool
	Loading   bool
	Err       string
}

// Client maintains the shared live-calls connection. Construct one per
// application with New and run it with Run; all consumers share it.
type Client struct {
	url   string
	token string

	mu      sync.Mutex
	state   State
	updates chan State

	refresh chan struct{}
}

// New creates a client for the given WebSocket URL (ws://host/ws). token may
// be empty when the server runs without auth.
func New(url, token string) *Client {
	return &Client{
		url:     url,
		token:   token,
		state:   State{Loading: true},
		updates: make(chan State, 16),
		refresh: make(chan struct{}, 1),
	}
}

// State returns the latest state bundle. Always authoritative; Updates may
// drop intermediate values under load.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates delivers state changes as they happen. Slow consumers miss
// intermediate states, not the latest: re-read State() after draining.
func (c *Client) Updates() <-chan State {
	return c.updates
}

// Refresh asks the server for an immediate out-of-band snapshot cycle. It is
// fire-and-forget: the result arrives through the normal push path and no
// local state changes here.
func (c *Client) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Run connects and processes pushes until ctx is cancelled or the reconnect
// budget is exhausted. Each successful connection resets the budget.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := c.dial(ctx)
		if err != nil {
			attempt++
			if attempt >= maxReconnectAttempts {
				c.update(func(s *State) {
					s.Connected = false
					s.Loading = false
					s.Err = "Connection lost. Please reload the dashboard."
				})
				return fmt.Errorf("connect: %w", err)
			}
			c.update(func(s *State) {
				s.Connected = false
				s.Err = fmt.Sprintf("Reconnecting... (attempt %d)", attempt)
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectDelay):
			}
			continue
		}

		attempt = 0
		c.update(func(s *State) {
			s.Connected = true
			s.Err = ""
		})

		c.serve(ctx, conn)

		// Transport dropped; stale calls stay visible while we reconnect.
		c.update(func(s *State) {
			s.Connected = false
		})
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := &websocket.DialOptions{}
	if c.token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + c.token}}
	}
	conn, _, err := websocket.Dial(dialCtx, c.url, opts)
	return conn, err
}

// serve pumps one connection until it fails, forwarding refresh requests and
// applying inbound pushes. Every inbound snapshot is authoritative: there is
// no ordering guarantee between a broadcast and a refresh result, so
// last-message-wins is the contract.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close(websocket.StatusNormalClosure, "")

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			select {
			case <-connCtx.Done():
				return
			case <-c.refresh:
				data, _ := json.Marshal(map[string]string{"type": "refresh-live-calls"})
				if err := conn.Write(connCtx, websocket.MessageText, data); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.Read(connCtx)
		if err != nil {
			return
		}
		c.handlePush(data)
	}
}

type serverPush struct {
	Type  string             `json:"type"`
	Calls livecalls.Snapshot `json:"calls"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) handlePush(data []byte) {
	var push serverPush
	if err := json.Unmarshal(data, &push); err != nil {
		return
	}

	switch push.Type {
	case "live-calls-update":
		calls := push.Calls
		if calls == nil {
			calls = livecalls.Snapshot{}
		}
		c.update(func(s *State) {
			s.LiveCalls = calls
			s.Loading = false
			s.Err = ""
		})
	case "live-calls-error":
		msg := "live calls unavailable"
		if push.Error != nil && push.Error.Message != "" {
			msg = push.Error.Message
		}
		// Keep the stale call list visible rather than blanking the view.
		c.update(func(s *State) {
			s.Loading = false
			s.Err = msg
		})
	}
}

func (c *Client) update(mutate func(*State)) {
	c.mu.Lock()
	mutate(&c.state)
	snapshot := c.state
	c.mu.Unlock()

	select {
	case c.updates <- snapshot:
	default:
	}
}
