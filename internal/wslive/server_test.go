package wslive

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/coveline/calldeck/internal/livecalls"
	"github.com/coveline/calldeck/internal/upstream"
)

type stubSource struct {
	mu    sync.Mutex
	convs []upstream.Conversation
}

func (s *stubSource) ListConversations(_ context.Context) ([]upstream.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]upstream.Conversation, len(s.convs))
	copy(out, s.convs)
	return out, nil
}

func (s *stubSource) set(convs []upstream.Conversation) {
	s.mu.Lock()
	s.convs = convs
	s.mu.Unlock()
}

func liveConv(id, agentName, status string) upstream.Conversation {
	return upstream.Conversation{
		ID:             id,
		AgentID:        "agent-1",
		AgentName:      agentName,
		Status:         status,
		StartTimestamp: time.Now().Add(-time.Minute).Unix(),
		FromNumber:     "+15551234567",
	}
}

func setupTestServer(t *testing.T, src livecalls.Source, authToken string) (*livecalls.Hub, *httptest.Server) {
	t.Helper()
	hub := livecalls.NewHub(livecalls.NewBuilder(src, livecalls.DefaultMaxAge), time.Hour)
	t.Cleanup(hub.Close)

	ts := httptest.NewServer(NewServer(hub, authToken, nil))
	t.Cleanup(ts.Close)
	return hub, ts
}

type testConn struct {
	conn *websocket.Conn
}

func dialTestServer(t *testing.T, ts *httptest.Server, query string) *testConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + query
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return &testConn{conn: conn}
}

func (c *testConn) send(t *testing.T, msg clientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// testMessage is the union of server message shapes for decoding in tests.
type testMessage struct {
	Type  string             `json:"type"`
	Calls livecalls.Snapshot `json:"calls"`
	Error *errorBody         `json:"error"`
}

func (c *testConn) recv(t *testing.T) testMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := c.conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg testMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

// recvUpdate reads messages until a live-calls-update arrives.
func (c *testConn) recvUpdate(t *testing.T) testMessage {
	t.Helper()
	for {
		msg := c.recv(t)
		if msg.Type == "live-calls-update" {
			return msg
		}
	}
}

func TestConnectReceivesImmediateSnapshot(t *testing.T) {
	src := &stubSource{}
	src.set([]upstream.Conversation{liveConv("c1", "Support Agent", "in_progress")})
	_, ts := setupTestServer(t, src, "")

	c := dialTestServer(t, ts, "")
	msg := c.recvUpdate(t)

	if len(msg.Calls) != 1 {
		t.Fatalf("calls len = %d, want 1", len(msg.Calls))
	}
	if msg.Calls[0].ID != "c1" {
		t.Fatalf("call id = %q, want c1", msg.Calls[0].ID)
	}
	if msg.Calls[0].PhoneNumber != "+15551234567" {
		t.Fatalf("phone = %q, want +15551234567", msg.Calls[0].PhoneNumber)
	}
}

func TestConnectReceivesEmptyCallsArray(t *testing.T) {
	_, ts := setupTestServer(t, &stubSource{}, "")

	c := dialTestServer(t, ts, "")
	msg := c.recvUpdate(t)

	if msg.Calls == nil {
		t.Fatal("calls must be an empty array, not omitted")
	}
	if len(msg.Calls) != 0 {
		t.Fatalf("calls len = %d, want 0", len(msg.Calls))
	}
}

func TestRefreshBroadcastsNewSnapshot(t *testing.T) {
	src := &stubSource{}
	src.set([]upstream.Conversation{liveConv("c1", "Support Agent", "in_progress")})
	_, ts := setupTestServer(t, src, "")

	c := dialTestServer(t, ts, "")
	c.recvUpdate(t)

	src.set([]upstream.Conversation{
		liveConv("c1", "Support Agent", "in_progress"),
		liveConv("c2", "Sales Agent", "active"),
	})
	c.send(t, clientMessage{Type: "refresh-live-calls"})

	for {
		msg := c.recvUpdate(t)
		if len(msg.Calls) == 2 {
			return
		}
	}
}

func TestAgentFilterScopesUpdates(t *testing.T) {
	src := &stubSource{}
	src.set([]upstream.Conversation{liveConv("c1", "Support Agent", "in_progress")})
	_, ts := setupTestServer(t, src, "")

	c := dialTestServer(t, ts, "")
	c.recvUpdate(t)

	c.send(t, clientMessage{Type: "filter-calls", IncludeAgentFilter: "^Sales"})

	src.set([]upstream.Conversation{
		liveConv("c1", "Support Agent", "in_progress"),
		liveConv("c2", "Sales Agent", "active"),
	})
	c.send(t, clientMessage{Type: "refresh-live-calls"})

	for {
		msg := c.recvUpdate(t)
		if len(msg.Calls) == 1 && msg.Calls[0].AgentName == "Sales Agent" {
			return
		}
		// Pre-filter updates may still be in flight; keep reading.
	}
}

func TestInvalidFilterReturnsError(t *testing.T) {
	_, ts := setupTestServer(t, &stubSource{}, "")

	c := dialTestServer(t, ts, "")
	c.recvUpdate(t)

	c.send(t, clientMessage{Type: "filter-calls", IncludeAgentFilter: "("})
	for {
		msg := c.recv(t)
		if msg.Type == "live-calls-error" {
			if msg.Error == nil || msg.Error.Message == "" {
				t.Fatal("expected error payload with message")
			}
			return
		}
	}
}

func TestUnknownMessageTypeReturnsError(t *testing.T) {
	_, ts := setupTestServer(t, &stubSource{}, "")

	c := dialTestServer(t, ts, "")
	c.recvUpdate(t)

	c.send(t, clientMessage{Type: "bogus"})
	for {
		msg := c.recv(t)
		if msg.Type == "live-calls-error" {
			return
		}
	}
}

func TestAuthTokenRequired(t *testing.T) {
	src := &stubSource{}
	_, ts := setupTestServer(t, src, "secret")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	_, _, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		t.Fatal("expected dial without token to fail")
	}

	c := dialTestServer(t, ts, "?token=secret")
	msg := c.recvUpdate(t)
	if msg.Type != "live-calls-update" {
		t.Fatalf("type = %q, want live-calls-update", msg.Type)
	}
}
