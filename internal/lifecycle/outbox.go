package lifecycle

import (
	"context"
	"time"
)

// OutboxEntry is a persisted lifecycle event awaiting relay to external
// consumers (the notification subsystem). The outbox is the durable leg of
// event delivery; the in-process bus is the fast one.
type OutboxEntry struct {
	ID          int64
	Event       Event
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// OutboxStore persists events for later relay.
type OutboxStore interface {
	Append(ctx context.Context, event Event) error
	// Pending returns up to limit unpublished entries, oldest first.
	Pending(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, entryID int64, at time.Time) error
}

// Publisher is the emission seam handed to the report service: it appends the
// event to the outbox for durable relay and fans it out on the bus for
// in-process consumers. Called after the state transition has committed, so
// a failed append can only delay external delivery, never a transition.
type Publisher struct {
	outbox OutboxStore
	bus    *Bus
}

func NewPublisher(outbox OutboxStore, bus *Bus) *Publisher {
	return &Publisher{outbox: outbox, bus: bus}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	err := p.outbox.Append(ctx, event)
	p.bus.Publish(ctx, event)
	return err
}
