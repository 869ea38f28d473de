package report

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) newReport(status Status) *Report {
	return &Report{
		ID:             id.NewReportID(),
		LocationID:     id.NewLocationID(),
		MunicipalityID: id.NewMunicipalityID(),
		ReporterID:     id.NewUserID(),
		Category:       CategoryRoad,
		Description:    "broken streetlight",
		Severity:       SeverityMedium,
		Status:         status,
		CreatedAt:      time.Now(),
	}
}

func (s *InMemoryStoreSuite) create(rep *Report) {
	first := StatusHistoryEntry{
		ReportID:  rep.ID,
		Status:    rep.Status,
		ChangedBy: SystemActor,
		Timestamp: rep.CreatedAt,
	}
	s.Require().NoError(s.store.Create(context.Background(), rep, first))
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	rep := s.newReport(StatusPending)
	s.create(rep)

	found, err := s.store.FindByID(ctx, rep.ID)
	s.Require().NoError(err)
	s.Equal(rep.ID, found.ID)
	s.Equal(StatusPending, found.Status)

	history, err := s.store.History(ctx, rep.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(StatusPending, history[0].Status)
	s.Equal(SystemActor, history[0].ChangedBy)
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewReportID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestTransition() {
	ctx := context.Background()
	rep := s.newReport(StatusPending)
	s.create(rep)

	s.Run("compare-and-set succeeds from expected state", func() {
		entry := StatusHistoryEntry{ReportID: rep.ID, Status: StatusVerified, ChangedBy: SystemActor, Timestamp: time.Now()}
		s.Require().NoError(s.store.Transition(ctx, rep.ID, StatusPending, StatusVerified, entry))

		found, err := s.store.FindByID(ctx, rep.ID)
		s.Require().NoError(err)
		s.Equal(StatusVerified, found.Status)
	})

	s.Run("stale expected state fails without mutating", func() {
		entry := StatusHistoryEntry{ReportID: rep.ID, Status: StatusRejected, ChangedBy: "staff", Timestamp: time.Now()}
		err := s.store.Transition(ctx, rep.ID, StatusPending, StatusRejected, entry)
		s.ErrorIs(err, sentinel.ErrInvalidState)

		found, err := s.store.FindByID(ctx, rep.ID)
		s.Require().NoError(err)
		s.Equal(StatusVerified, found.Status)
	})

	s.Run("history records each applied transition once", func() {
		history, err := s.store.History(ctx, rep.ID)
		s.Require().NoError(err)
		s.Len(history, 2)
	})
}

func (s *InMemoryStoreSuite) TestTransitionMissingReport() {
	entry := StatusHistoryEntry{Status: StatusVerified, ChangedBy: SystemActor, Timestamp: time.Now()}
	err := s.store.Transition(context.Background(), id.NewReportID(), StatusPending, StatusVerified, entry)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestConcurrentTransitionAppliesOnce() {
	ctx := context.Background()
	rep := s.newReport(StatusPending)
	s.create(rep)

	const racers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			entry := StatusHistoryEntry{ReportID: rep.ID, Status: StatusVerified, ChangedBy: SystemActor, Timestamp: time.Now()}
			err := s.store.Transition(ctx, rep.ID, StatusPending, StatusVerified, entry)
			if err == nil {
				wins.Add(1)
				return
			}
			s.True(errors.Is(err, sentinel.ErrInvalidState))
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())

	history, err := s.store.History(ctx, rep.ID)
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *InMemoryStoreSuite) TestListFilters() {
	ctx := context.Background()
	muni := id.NewMunicipalityID()
	reporter := id.NewUserID()

	mine := s.newReport(StatusPending)
	mine.MunicipalityID = muni
	mine.ReporterID = reporter
	s.create(mine)

	other := s.newReport(StatusVerified)
	other.MunicipalityID = muni
	s.create(other)

	elsewhere := s.newReport(StatusPending)
	s.create(elsewhere)

	s.Run("by status", func() {
		status := StatusPending
		reports, err := s.store.List(ctx, Filter{Status: &status})
		s.Require().NoError(err)
		s.Len(reports, 2)
	})

	s.Run("by municipality", func() {
		reports, err := s.store.List(ctx, Filter{MunicipalityID: &muni})
		s.Require().NoError(err)
		s.Len(reports, 2)
	})

	s.Run("excluding a reporter", func() {
		reports, err := s.store.List(ctx, Filter{MunicipalityID: &muni, ExcludeReporter: &reporter})
		s.Require().NoError(err)
		s.Require().Len(reports, 1)
		s.Equal(other.ID, reports[0].ID)
	})
}
