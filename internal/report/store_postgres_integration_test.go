//go:build integration

package report

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civictrust/internal/location"
	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
	"civictrust/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
	locStore *location.PostgresStore
	loc      *location.Location
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), "../../db/schema.sql")
	s.store = NewPostgresStore(s.postgres.DB)
	s.locStore = location.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))

	s.loc = &location.Location{
		ID:                   id.NewLocationID(),
		Name:                 "Town Hall Front Steps",
		Type:                 location.TypeGovernmentOffice,
		MunicipalityID:       id.NewMunicipalityID(),
		Latitude:             12.9663,
		Longitude:            77.5871,
		GeofenceRadiusMeters: 40,
	}
	s.Require().NoError(s.locStore.Save(ctx, s.loc))
}

func (s *PostgresStoreSuite) newReport() *Report {
	return &Report{
		ID:             id.NewReportID(),
		LocationID:     s.loc.ID,
		MunicipalityID: s.loc.MunicipalityID,
		ReporterID:     id.NewUserID(),
		Category:       CategoryRoad,
		Description:    "cracked pavement slab",
		Severity:       SeverityLow,
		Status:         StatusPending,
		UserLatitude:   s.loc.Latitude,
		UserLongitude:  s.loc.Longitude,
		MediaRefs:      []string{"media/1.jpg", "media/2.jpg"},
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) create(rep *Report) {
	first := StatusHistoryEntry{
		ReportID:  rep.ID,
		Status:    StatusPending,
		ChangedBy: SystemActor,
		Timestamp: rep.CreatedAt,
	}
	s.Require().NoError(s.store.Create(context.Background(), rep, first))
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	rep := s.newReport()
	s.create(rep)

	found, err := s.store.FindByID(ctx, rep.ID)
	s.Require().NoError(err)
	s.Equal(rep.ID, found.ID)
	s.Equal(rep.MediaRefs, found.MediaRefs)
	s.Equal(StatusPending, found.Status)
	s.WithinDuration(rep.CreatedAt, found.CreatedAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewReportID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestTransitionCompareAndSet() {
	ctx := context.Background()
	rep := s.newReport()
	s.create(rep)

	entry := StatusHistoryEntry{ReportID: rep.ID, Status: StatusVerified, ChangedBy: SystemActor, Timestamp: time.Now()}
	s.Require().NoError(s.store.Transition(ctx, rep.ID, StatusPending, StatusVerified, entry))

	// Stale expectation fails and leaves status untouched.
	err := s.store.Transition(ctx, rep.ID, StatusPending, StatusRejected, entry)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	found, err := s.store.FindByID(ctx, rep.ID)
	s.Require().NoError(err)
	s.Equal(StatusVerified, found.Status)

	history, err := s.store.History(ctx, rep.ID)
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *PostgresStoreSuite) TestConcurrentTransitionsAdmitOneWinner() {
	ctx := context.Background()
	rep := s.newReport()
	s.create(rep)

	const racers = 8
	var wins atomic.Int32
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			entry := StatusHistoryEntry{ReportID: rep.ID, Status: StatusVerified, ChangedBy: SystemActor, Timestamp: time.Now()}
			if err := s.store.Transition(ctx, rep.ID, StatusPending, StatusVerified, entry); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())

	history, err := s.store.History(ctx, rep.ID)
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()

	mine := s.newReport()
	s.create(mine)
	other := s.newReport()
	s.create(other)

	entry := StatusHistoryEntry{ReportID: other.ID, Status: StatusVerified, ChangedBy: SystemActor, Timestamp: time.Now()}
	s.Require().NoError(s.store.Transition(ctx, other.ID, StatusPending, StatusVerified, entry))

	status := StatusPending
	reports, err := s.store.List(ctx, Filter{Status: &status, MunicipalityID: &s.loc.MunicipalityID})
	s.Require().NoError(err)
	s.Require().Len(reports, 1)
	s.Equal(mine.ID, reports[0].ID)

	reports, err = s.store.List(ctx, Filter{MunicipalityID: &s.loc.MunicipalityID, ExcludeReporter: &mine.ReporterID})
	s.Require().NoError(err)
	s.Require().Len(reports, 1)
	s.Equal(other.ID, reports[0].ID)
}

func (s *PostgresStoreSuite) TestHistoryMissing() {
	_, err := s.store.History(context.Background(), id.NewReportID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
