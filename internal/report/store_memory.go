package report

import (
	"context"
	"fmt"
	"sort"
	"sync"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

// InMemoryStore stores reports and history in memory for tests and dev. The
// mutex gives the same per-report serialization the Postgres store gets from
// its conditional UPDATE.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[id.ReportID]*Report
	history map[id.ReportID][]StatusHistoryEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reports: make(map[id.ReportID]*Report),
		history: make(map[id.ReportID][]StatusHistoryEntry),
	}
}

func (s *InMemoryStore) Create(_ context.Context, rep *Report, first StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[rep.ID]; exists {
		return fmt.Errorf("report %s: %w", rep.ID, sentinel.ErrConflict)
	}
	copied := cloneReport(rep)
	s.reports[rep.ID] = copied
	s.history[rep.ID] = []StatusHistoryEntry{first}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, reportID id.ReportID) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", reportID, sentinel.ErrNotFound)
	}
	return cloneReport(rep), nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Report
	for _, rep := range s.reports {
		if filter.Status != nil && rep.Status != *filter.Status {
			continue
		}
		if filter.MunicipalityID != nil && rep.MunicipalityID != *filter.MunicipalityID {
			continue
		}
		if filter.ExcludeReporter != nil && rep.ReporterID == *filter.ExcludeReporter {
			continue
		}
		out = append(out, cloneReport(rep))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) History(_ context.Context, reportID id.ReportID) ([]StatusHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.reports[reportID]; !ok {
		return nil, fmt.Errorf("report %s: %w", reportID, sentinel.ErrNotFound)
	}
	return append([]StatusHistoryEntry{}, s.history[reportID]...), nil
}

func (s *InMemoryStore) Transition(_ context.Context, reportID id.ReportID, from, to Status, entry StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[reportID]
	if !ok {
		return fmt.Errorf("report %s: %w", reportID, sentinel.ErrNotFound)
	}
	if rep.Status != from {
		return fmt.Errorf("report %s is %s, expected %s: %w", reportID, rep.Status, from, sentinel.ErrInvalidState)
	}
	rep.Status = to
	s.history[reportID] = append(s.history[reportID], entry)
	return nil
}

func cloneReport(rep *Report) *Report {
	copied := *rep
	copied.MediaRefs = append([]string(nil), rep.MediaRefs...)
	return &copied
}
