package incentive

import (
	"context"
	"fmt"
	"sync"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

// InMemoryStore stores incentive accounts in memory for tests and dev.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.UserID]*Account
	// tickets holds, per period, one user ID per issued ticket.
	tickets map[id.PeriodID][]id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[id.UserID]*Account),
		tickets:  make(map[id.PeriodID][]id.UserID),
	}
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("incentive account %s: %w", userID, sentinel.ErrNotFound)
	}
	return cloneAccount(account), nil
}

func (s *InMemoryStore) Credit(_ context.Context, userID id.UserID, points, reportsFiledDelta, reportsVerifiedDelta int) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureAccount(userID)
	account.TotalPoints += points
	account.ReportsFiled += reportsFiledDelta
	account.ReportsVerified += reportsVerifiedDelta
	return cloneAccount(account), nil
}

func (s *InMemoryStore) AwardBadge(_ context.Context, userID id.UserID, badge Badge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureAccount(userID)
	if account.HasBadge(badge) {
		return false, nil
	}
	account.EarnedBadges = append(account.EarnedBadges, badge)
	return true, nil
}

func (s *InMemoryStore) AddTicket(_ context.Context, userID id.UserID, periodID id.PeriodID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureAccount(userID)
	if account.TicketsByPeriod == nil {
		account.TicketsByPeriod = make(map[id.PeriodID]int)
	}
	account.TicketsByPeriod[periodID]++
	s.tickets[periodID] = append(s.tickets[periodID], userID)
	return nil
}

func (s *InMemoryStore) TicketEntries(_ context.Context, periodID id.PeriodID) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.UserID{}, s.tickets[periodID]...), nil
}

func (s *InMemoryStore) ensureAccount(userID id.UserID) *Account {
	account, ok := s.accounts[userID]
	if !ok {
		account = &Account{UserID: userID, TicketsByPeriod: make(map[id.PeriodID]int)}
		s.accounts[userID] = account
	}
	return account
}

func cloneAccount(account *Account) *Account {
	copied := *account
	copied.EarnedBadges = append([]Badge(nil), account.EarnedBadges...)
	copied.TicketsByPeriod = make(map[id.PeriodID]int, len(account.TicketsByPeriod))
	for period, n := range account.TicketsByPeriod {
		copied.TicketsByPeriod[period] = n
	}
	return &copied
}
