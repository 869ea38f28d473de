package lifecycle

import (
	"context"
	"log/slog"
	"time"
)

// Sink is the external consumer of relayed events, typically the notification
// subsystem. Delivery is best-effort; a failing sink is retried on the next
// relay tick.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Deliver(ctx context.Context, event Event) error { return f(ctx, event) }

// Relay drains the outbox into a sink on a fixed interval. It keeps external
// delivery off the critical path of state transitions.
type Relay struct {
	outbox   OutboxStore
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func NewRelay(outbox OutboxStore, sink Sink, logger *slog.Logger) *Relay {
	return &Relay{
		outbox:   outbox,
		sink:     sink,
		logger:   logger,
		interval: 2 * time.Second,
		batch:    100,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *Relay) drain(ctx context.Context) {
	entries, err := r.outbox.Pending(ctx, r.batch)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to read pending outbox entries", "error", err)
		return
	}
	for _, entry := range entries {
		if err := r.sink.Deliver(ctx, entry.Event); err != nil {
			// Leave the entry pending; it will be retried next tick.
			r.logger.WarnContext(ctx, "event delivery failed",
				"error", err,
				"event_type", string(entry.Event.Type),
			)
			continue
		}
		if err := r.outbox.MarkPublished(ctx, entry.ID, time.Now()); err != nil {
			r.logger.ErrorContext(ctx, "failed to mark outbox entry published",
				"error", err,
				"entry_id", entry.ID,
			)
		}
	}
}
