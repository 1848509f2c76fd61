package livecalls

import (
	"context"
	"fmt"
	"time"

	"github.com/coveline/calldeck/internal/upstream"
)

// UnknownNumber is the placeholder used when the provider reports no
// counterparty number.
const UnknownNumber = "Unknown"

// DefaultMaxAge is the staleness threshold: calls older than this are
// excluded from snapshots regardless of their reported status, guarding
// against upstream records stuck in an active-looking status.
const DefaultMaxAge = 15 * time.Minute

// Record is one live call as broadcast to dashboards. StartTime crosses the
// wire as RFC 3339 text; Duration is whole seconds elapsed at snapshot time.
type Record struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agentId"`
	AgentName   string    `json:"agentName"`
	PhoneNumber string    `json:"phoneNumber"`
	Status      string    `json:"status"`
	Duration    int64     `json:"duration"`
	StartTime   time.Time `json:"startTime"`
}

// Snapshot is the complete set of live calls at one instant, in upstream
// order.
type Snapshot []Record

// Source lists conversations from the provider. Pagination is the source's
// concern; Build always sees the full set.
type Source interface {
	ListConversations(ctx context.Context) ([]upstream.Conversation, error)
}

// Builder turns the provider's conversation list into live-call snapshots.
type Builder struct {
	src    Source
	maxAge time.Duration
	now    func() time.Time
}

// NewBuilder creates a Builder. maxAge <= 0 selects DefaultMaxAge.
func NewBuilder(src Source, maxAge time.Duration) *Builder {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Builder{src: src, maxAge: maxAge, now: time.Now}
}

// Build fetches all conversations and returns those currently live. A fetch
// failure returns an error and no snapshot; the caller treats the cycle as
// having produced nothing. An empty upstream result is an empty snapshot,
// not an error.
func (b *Builder) Build(ctx context.Context) (Snapshot, error) {
	convs, err := b.src.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	now := b.now()
	snapshot := make(Snapshot, 0, len(convs))
	for _, conv := range convs {
		if !IsLive(conv.Status) {
			continue
		}
		rec := b.toRecord(conv, now)
		if now.Sub(rec.StartTime) > b.maxAge {
			continue
		}
		snapshot = append(snapshot, rec)
	}
	return snapshot, nil
}

// toRecord maps one conversation to a Record with field-level fallbacks:
// missing phone number becomes UnknownNumber, missing start time becomes the
// snapshot build time (duration 0 for this poll).
func (b *Builder) toRecord(conv upstream.Conversation, now time.Time) Record {
	phone := conv.FromNumber
	if phone == "" {
		phone = conv.CallerNumber
	}
	if phone == "" {
		phone = UnknownNumber
	}

	epoch := conv.StartTimestamp
	if epoch == 0 {
		epoch = conv.BeginTimestamp
	}
	start := now
	if epoch > 0 {
		start = time.Unix(epoch, 0)
	}

	duration := int64(now.Sub(start).Seconds())
	if duration < 0 {
		duration = 0
	}

	return Record{
		ID:          conv.ID,
		AgentID:     conv.AgentID,
		AgentName:   conv.AgentName,
		PhoneNumber: phone,
		Status:      conv.Status,
		Duration:    duration,
		StartTime:   start,
	}
}
