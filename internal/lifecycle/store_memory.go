package lifecycle

import (
	"context"
	"sync"
	"time"
)

// InMemoryOutbox stores outbox entries in memory for tests and dev.
type InMemoryOutbox struct {
	mu      sync.Mutex
	nextID  int64
	entries []OutboxEntry
}

func NewInMemoryOutbox() *InMemoryOutbox {
	return &InMemoryOutbox{nextID: 1}
}

func (s *InMemoryOutbox) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, OutboxEntry{
		ID:        s.nextID,
		Event:     event,
		CreatedAt: time.Now(),
	})
	s.nextID++
	return nil
}

func (s *InMemoryOutbox) Pending(_ context.Context, limit int) ([]OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []OutboxEntry
	for _, entry := range s.entries {
		if entry.PublishedAt == nil {
			pending = append(pending, entry)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (s *InMemoryOutbox) MarkPublished(_ context.Context, entryID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == entryID {
			published := at
			s.entries[i].PublishedAt = &published
			return nil
		}
	}
	return nil
}
