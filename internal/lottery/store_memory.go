package lottery

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

// InMemoryStore stores lottery periods in memory for tests and dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	periods map[id.PeriodID]*Period
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{periods: make(map[id.PeriodID]*Period)}
}

func (s *InMemoryStore) Create(_ context.Context, period *Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.periods[period.ID]; exists {
		return fmt.Errorf("lottery period %s: %w", period.ID, sentinel.ErrConflict)
	}
	copied := clonePeriod(period)
	s.periods[period.ID] = copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, periodID id.PeriodID) (*Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	period, ok := s.periods[periodID]
	if !ok {
		return nil, fmt.Errorf("lottery period %s: %w", periodID, sentinel.ErrNotFound)
	}
	return clonePeriod(period), nil
}

func (s *InMemoryStore) FindOpenByMunicipality(_ context.Context, municipalityID id.MunicipalityID, at time.Time) (*Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, period := range s.periods {
		if period.MunicipalityID == municipalityID &&
			period.Status == PeriodOpen &&
			!at.Before(period.Start) && at.Before(period.End) {
			return clonePeriod(period), nil
		}
	}
	return nil, fmt.Errorf("open lottery period for %s: %w", municipalityID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) MarkDrawn(_ context.Context, periodID id.PeriodID, winner id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	period, ok := s.periods[periodID]
	if !ok {
		return fmt.Errorf("lottery period %s: %w", periodID, sentinel.ErrNotFound)
	}
	if period.Status != PeriodOpen {
		return fmt.Errorf("lottery period %s already drawn: %w", periodID, sentinel.ErrInvalidState)
	}
	period.Status = PeriodDrawn
	period.WinnerUserID = &winner
	drawnAt := at
	period.DrawnAt = &drawnAt
	return nil
}

func clonePeriod(period *Period) *Period {
	copied := *period
	if period.WinnerUserID != nil {
		winner := *period.WinnerUserID
		copied.WinnerUserID = &winner
	}
	if period.DrawnAt != nil {
		drawnAt := *period.DrawnAt
		copied.DrawnAt = &drawnAt
	}
	return &copied
}
