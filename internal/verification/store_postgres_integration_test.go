//go:build integration

package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civictrust/internal/location"
	"civictrust/internal/report"
	id "civictrust/pkg/domain"
	"civictrust/pkg/platform/sentinel"
	"civictrust/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	store       *PostgresStore
	reportStore *report.PostgresStore
	locStore    *location.PostgresStore
	loc         *location.Location
	reportID    id.ReportID
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
	s.reportStore = report.NewPostgresStore(s.postgres.DB)
	s.locStore = location.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))

	s.loc = &location.Location{
		ID:                   id.NewLocationID(),
		Name:                 "Russell Market North Gate",
		Type:                 location.TypePublicBin,
		MunicipalityID:       id.NewMunicipalityID(),
		Latitude:             12.9830,
		Longitude:            77.6030,
		GeofenceRadiusMeters: 60,
	}
	s.Require().NoError(s.locStore.Save(ctx, s.loc))

	rep := &report.Report{
		ID:             id.NewReportID(),
		LocationID:     s.loc.ID,
		MunicipalityID: s.loc.MunicipalityID,
		ReporterID:     id.NewUserID(),
		Category:       report.CategorySanitation,
		Description:    "overflowing bins at the north gate",
		Severity:       report.SeverityMedium,
		Status:         report.StatusPending,
		UserLatitude:   s.loc.Latitude,
		UserLongitude:  s.loc.Longitude,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	first := report.StatusHistoryEntry{
		ReportID:  rep.ID,
		Status:    report.StatusPending,
		ChangedBy: report.SystemActor,
		Timestamp: rep.CreatedAt,
	}
	s.Require().NoError(s.reportStore.Create(ctx, rep, first))
	s.reportID = rep.ID
}

func (s *PostgresStoreSuite) newVote(voterID id.UserID, decision Decision) *Vote {
	return &Vote{
		ReportID:       s.reportID,
		VoterID:        voterID,
		Decision:       decision,
		VoterLatitude:  s.loc.Latitude,
		VoterLongitude: s.loc.Longitude,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestUpsertReplacesVote() {
	ctx := context.Background()
	voterID := id.NewUserID()

	s.Require().NoError(s.store.Upsert(ctx, s.newVote(voterID, DecisionConfirm)))
	s.Require().NoError(s.store.Upsert(ctx, s.newVote(voterID, DecisionDispute)))

	votes, err := s.store.ListByReport(ctx, s.reportID)
	s.Require().NoError(err)
	s.Require().Len(votes, 1)
	s.Equal(DecisionDispute, votes[0].Decision)

	confirmers, err := s.store.Confirmers(ctx, s.reportID)
	s.Require().NoError(err)
	s.Empty(confirmers)
}

func (s *PostgresStoreSuite) TestConfirmersInVoteOrder() {
	ctx := context.Background()
	alice := id.NewUserID()
	bob := id.NewUserID()

	voteA := s.newVote(alice, DecisionConfirm)
	voteB := s.newVote(bob, DecisionConfirm)
	voteB.CreatedAt = voteA.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.Upsert(ctx, voteA))
	s.Require().NoError(s.store.Upsert(ctx, voteB))
	s.Require().NoError(s.store.Upsert(ctx, s.newVote(id.NewUserID(), DecisionDispute)))

	confirmers, err := s.store.Confirmers(ctx, s.reportID)
	s.Require().NoError(err)
	s.Equal([]id.UserID{alice, bob}, confirmers)
}

func (s *PostgresStoreSuite) TestUpsertRejectedOnceReportLeavesPending() {
	ctx := context.Background()

	s.Require().NoError(s.store.Upsert(ctx, s.newVote(id.NewUserID(), DecisionConfirm)))

	entry := report.StatusHistoryEntry{
		ReportID:  s.reportID,
		Status:    report.StatusVerified,
		ChangedBy: report.SystemActor,
		Timestamp: time.Now(),
	}
	s.Require().NoError(s.reportStore.Transition(ctx, s.reportID,
		report.StatusPending, report.StatusVerified, entry))

	// A vote arriving after verification is refused by the database itself,
	// regardless of what any one process observed earlier.
	err := s.store.Upsert(ctx, s.newVote(id.NewUserID(), DecisionConfirm))
	s.ErrorIs(err, sentinel.ErrInvalidState)

	votes, err := s.store.ListByReport(ctx, s.reportID)
	s.Require().NoError(err)
	s.Len(votes, 1)
}
