package agents

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/coveline/calldeck/internal/upstream"
)

// DefaultTTL is how long a fetched agent directory is served before the
// upstream is consulted again. Keeps repeated dashboard loads off the
// rate-limited provider.
const DefaultTTL = time.Minute

// Agent is an upstream agent decorated for dashboard display.
type Agent struct {
	upstream.Agent
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Directory lists agent definitions from the provider.
type Directory interface {
	ListAgents(ctx context.Context) ([]upstream.Agent, error)
}

// Registry is a TTL cache over the upstream agent directory.
type Registry struct {
	dir Directory
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	cached    []Agent
	fetchedAt time.Time
}

// NewRegistry creates a Registry. ttl <= 0 selects DefaultTTL.
func NewRegistry(dir Directory, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{dir: dir, ttl: ttl, now: time.Now}
}

// Agents returns the decorated agent list, refreshing from upstream when the
// cache has expired. A failed refresh propagates its error rather than
// serving the expired cache.
func (r *Registry) Agents(ctx context.Context) ([]Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && r.now().Sub(r.fetchedAt) < r.ttl {
		return r.cached, nil
	}

	raw, err := r.dir.ListAgents(ctx)
	if err != nil {
		return nil, err
	}

	decorated := make([]Agent, 0, len(raw))
	for _, a := range raw {
		decorated = append(decorated, Agent{
			Agent:       a,
			Category:    guessCategory(a),
			Description: describe(a),
		})
	}
	r.cached = decorated
	r.fetchedAt = r.now()
	return decorated, nil
}

// Count returns the number of known agents without forcing a refresh.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cached)
}

// categoryKeywords maps dashboard categories to keywords matched against the
// agent's name and prompt, checked in order.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"sales", []string{"sales", "lead", "outreach", "upsell"}},
	{"support", []string{"support", "help", "issue", "troubleshoot", "complaint"}},
	{"scheduling", []string{"schedule", "appointment", "booking", "calendar", "reminder"}},
	{"survey", []string{"survey", "feedback", "review", "nps"}},
}

func guessCategory(a upstream.Agent) string {
	haystack := strings.ToLower(a.Name + " " + a.Prompt)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(haystack, w) {
				return ck.category
			}
		}
	}
	return "general"
}

func describe(a upstream.Agent) string {
	prompt := strings.TrimSpace(a.Prompt)
	if prompt == "" {
		return a.Name
	}
	// First sentence of the prompt, capped.
	if i := strings.IndexAny(prompt, ".\n"); i > 0 {
		prompt = prompt[:i]
	}
	if len(prompt) > 140 {
		prompt = prompt[:140]
	}
	return prompt
}
