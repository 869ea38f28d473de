package verification

import (
	"context"
	"sync"

	id "civictrust/pkg/domain"
)

// InMemoryStore stores votes in memory for tests and dev, keyed by report
// with insertion order preserved so tallies are deterministic.
type InMemoryStore struct {
	mu    sync.RWMutex
	votes map[id.ReportID][]*Vote
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{votes: make(map[id.ReportID][]*Vote)}
}

func (s *InMemoryStore) Upsert(_ context.Context, vote *Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *vote
	votes := s.votes[vote.ReportID]
	for i, existing := range votes {
		if existing.VoterID == vote.VoterID {
			votes[i] = &copied
			return nil
		}
	}
	s.votes[vote.ReportID] = append(votes, &copied)
	return nil
}

func (s *InMemoryStore) ListByReport(_ context.Context, reportID id.ReportID) ([]*Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Vote
	for _, vote := range s.votes[reportID] {
		copied := *vote
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) Confirmers(_ context.Context, reportID id.ReportID) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var confirmers []id.UserID
	for _, vote := range s.votes[reportID] {
		if vote.Decision == DecisionConfirm {
			confirmers = append(confirmers, vote.VoterID)
		}
	}
	return confirmers, nil
}
