package location

import (
	"context"
	"fmt"
	"sync"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

// InMemoryStore stores locations in memory for tests and dev.
type InMemoryStore struct {
	mu        sync.RWMutex
	locations map[id.LocationID]*Location
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{locations: make(map[id.LocationID]*Location)}
}

func (s *InMemoryStore) Save(_ context.Context, loc *Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *loc
	s.locations[loc.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, locationID id.LocationID) (*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if loc, ok := s.locations[locationID]; ok {
		copied := *loc
		return &copied, nil
	}
	return nil, fmt.Errorf("location %s: %w", locationID, sentinel.ErrNotFound)
}
