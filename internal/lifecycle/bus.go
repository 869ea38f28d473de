package lifecycle

import (
	"context"
	"log/slog"
	"sync"
)

// Bus fans events out to in-process subscribers over buffered channels.
// Best-effort subscribers lose events rather than stalling a state
// transition; reliable subscribers make Publish wait for buffer space, so
// consumers whose side effects matter (point credits) never miss an event.
// Consumers that need durability across restarts read the outbox.
type Bus struct {
	mu     sync.RWMutex
	subs   []busSubscriber
	closed bool
	logger *slog.Logger
}

type busSubscriber struct {
	ch       chan Event
	reliable bool
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a best-effort consumer with the given channel buffer.
// Events are dropped when the buffer is full.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	return b.subscribe(buffer, false)
}

// SubscribeReliable registers a consumer that never loses events: Publish
// blocks until the event fits in the buffer or its context ends. A reliable
// consumer that stops draining stalls publishers, so only attach one that
// runs for the life of the process.
func (b *Bus) SubscribeReliable(buffer int) <-chan Event {
	return b.subscribe(buffer, true)
}

func (b *Bus) subscribe(buffer int, reliable bool) <-chan Event {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, busSubscriber{ch: ch, reliable: reliable})
	return ch
}

// Publish delivers the event to every subscriber. Best-effort subscribers
// with a full buffer drop the event; reliable subscribers are waited on
// until the context is done.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.reliable {
			select {
			case sub.ch <- event:
			case <-ctx.Done():
				b.logger.WarnContext(ctx, "context ended before reliable subscriber accepted lifecycle event",
					"event_type", string(event.Type),
					"report_id", event.ReportID.String(),
				)
			}
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.WarnContext(ctx, "dropping lifecycle event for slow subscriber",
				"event_type", string(event.Type),
				"report_id", event.ReportID.String(),
			)
		}
	}
}

// Close closes all subscriber channels. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
}
