package livecalls

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Receiver is the hub's view of a connected dashboard client. Both methods
// must not block; the WebSocket layer backs them with a buffered send
// channel and drops on overflow.
type Receiver interface {
	SendSnapshot(Snapshot)
	SendError(msg string)
}

// Hub owns the only shared mutable state of the live-call service: the set
// of attached clients and the last broadcast snapshot. It drives the poll
// loop while at least one client is attached and fans out snapshots when the
// change detector says something real happened.
//
// Exactly one Hub is constructed per server process.
type Hub struct {
	builder *Builder

	mu       sync.Mutex
	clients  map[Receiver]struct{}
	prev     Snapshot // last broadcast snapshot; nil until first broadcast
	inFlight bool     // single-flight guard for build+detect+broadcast
	polling  context.CancelFunc
	interval time.Duration
}

// NewHub creates a Hub polling at the given interval. interval <= 0 selects
// two seconds.
func NewHub(builder *Builder, interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Hub{
		builder:  builder,
		clients:  make(map[Receiver]struct{}),
		interval: interval,
	}
}

// Attach registers a client. The first client starts the poll loop; every
// new client gets a fresh snapshot pushed to it alone, without waiting for
// the next tick and regardless of change detection.
func (h *Hub) Attach(r Receiver) {
	h.mu.Lock()
	h.clients[r] = struct{}{}
	count := len(h.clients)
	if count == 1 && h.polling == nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.polling = cancel
		go h.pollLoop(ctx)
	}
	h.mu.Unlock()

	log.Info().Int("clients", count).Msg("live-calls client attached")
	go h.pushInitial(r)
}

// Detach removes a client. When the last client leaves the poll loop stops;
// no upstream fetches happen while nobody is watching.
func (h *Hub) Detach(r Receiver) {
	h.mu.Lock()
	delete(h.clients, r)
	count := len(h.clients)
	if count == 0 && h.polling != nil {
		h.polling()
		h.polling = nil
	}
	h.mu.Unlock()

	log.Info().Int("clients", count).Msg("live-calls client detached")
}

// Refresh runs one out-of-band build+detect+broadcast cycle, independent of
// the timer. Subject to the same single-flight guard as scheduled ticks.
func (h *Hub) Refresh() {
	go h.runCycle(context.Background())
}

// SetInterval updates the poll period. Takes effect on the next tick.
func (h *Hub) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	h.mu.Lock()
	h.interval = d
	h.mu.Unlock()
}

// Close stops the poll loop if it is running.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.polling != nil {
		h.polling()
		h.polling = nil
	}
	h.mu.Unlock()
}

// pollLoop runs an immediate cycle, then ticks until the context is
// cancelled by the last detach.
func (h *Hub) pollLoop(ctx context.Context) {
	log.Debug().Msg("live-calls polling started")
	h.runCycle(ctx)

	ticker := time.NewTicker(h.currentInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("live-calls polling stopped")
			return
		case <-ticker.C:
			h.runCycle(ctx)
			ticker.Reset(h.currentInterval())
		}
	}
}

func (h *Hub) currentInterval() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interval
}

// runCycle executes one build+detect+broadcast sequence. At most one cycle
// is in flight at a time: a slow upstream fetch causes overlapping ticks and
// manual refreshes to be skipped rather than raced, since two interleaved
// cycles comparing against the shared previous snapshot could mask or
// duplicate a broadcast.
func (h *Hub) runCycle(ctx context.Context) {
	h.mu.Lock()
	if h.inFlight {
		h.mu.Unlock()
		return
	}
	h.inFlight = true
	h.mu.Unlock()

	// The fetch runs outside the lock: attach/detach must stay responsive
	// while upstream I/O is in flight.
	snapshot, err := h.builder.Build(ctx)

	h.mu.Lock()
	defer func() {
		h.inFlight = false
		h.mu.Unlock()
	}()

	if err != nil {
		// Non-fatal: previous snapshot stays the last-known-good state and
		// the next tick retries. The fixed period is the only retry policy.
		log.Warn().Err(err).Msg("live-calls poll failed")
		for c := range h.clients {
			c.SendError("failed to fetch live calls")
		}
		return
	}

	// The fetch may have outlived the last client; its result is discarded.
	if len(h.clients) == 0 {
		return
	}

	if !HasChanged(h.prev, snapshot) {
		// Unchanged polls are pure no-ops. prev is intentionally not
		// replaced: the rebuilt snapshot differs only in duration, which
		// clients recompute locally from startTime.
		return
	}

	h.prev = snapshot
	log.Debug().Int("calls", len(snapshot)).Msg("broadcasting live-calls update")
	for c := range h.clients {
		c.SendSnapshot(snapshot)
	}
}

// pushInitial builds a fresh snapshot for one newly attached client so it
// sees current state immediately instead of waiting for the next change.
// The shared previous snapshot is not consulted or updated.
func (h *Hub) pushInitial(r Receiver) {
	snapshot, err := h.builder.Build(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("initial live-calls snapshot failed")
		r.SendError("failed to fetch live calls")
		return
	}
	r.SendSnapshot(snapshot)
}
