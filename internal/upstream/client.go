package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Client talks to the telephony provider's REST API. All methods are
// read-only except CreateCall; ListConversations handles pagination
// internally and returns the full result set.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	httpc    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (timeouts, transports).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithPageSize sets the page size used when listing conversations.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a provider client. baseURL is the API root without a trailing
// slash; apiKey is sent as a bearer token.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		pageSize: 100,
		httpc:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type conversationsPage struct {
	Conversations []Conversation `json:"conversations"`
	NextCursor    string         `json:"nextCursor,omitempty"`
}

// ListConversations fetches every conversation the provider will return,
// following pagination cursors until exhausted.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var all []Conversation
	cursor := ""
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.pageSize))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var page conversationsPage
		if err := c.get(ctx, "/v1/conversations?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		all = append(all, page.Conversations...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// GetConversation fetches a single conversation including its transcript.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	if err := c.get(ctx, "/v1/conversations/"+url.PathEscape(id), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

type agentsPage struct {
	Agents []Agent `json:"agents"`
}

// ListAgents fetches all agent definitions.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var page agentsPage
	if err := c.get(ctx, "/v1/agents", &page); err != nil {
		return nil, err
	}
	return page.Agents, nil
}

// CreateCall places an outbound call.
func (c *Client) CreateCall(ctx context.Context, req CreateCallRequest) (*Call, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/calls", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var call Call
	if err := c.do(httpReq, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream %s %s: decode: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
