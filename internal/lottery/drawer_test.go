package lottery

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civictrust/internal/incentive"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
)

type DrawerSuite struct {
	suite.Suite
	store   *InMemoryStore
	tickets *incentive.InMemoryStore
	drawer  *Drawer
	muniID  id.MunicipalityID
	clock   time.Time
}

func TestDrawerSuite(t *testing.T) {
	suite.Run(t, new(DrawerSuite))
}

func (s *DrawerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = NewInMemoryStore()
	s.tickets = incentive.NewInMemoryStore()
	s.muniID = id.NewMunicipalityID()
	s.clock = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s.drawer = NewDrawer(s.store, s.tickets, logger).WithClock(func() time.Time { return s.clock })
}

// endedPeriod creates a period whose window has already closed.
func (s *DrawerSuite) endedPeriod() *Period {
	period, err := s.drawer.CreatePeriod(context.Background(), s.muniID,
		s.clock.Add(-14*24*time.Hour), s.clock.Add(-time.Hour))
	s.Require().NoError(err)
	return period
}

func (s *DrawerSuite) issueTickets(periodID id.PeriodID, users ...id.UserID) {
	for _, userID := range users {
		s.Require().NoError(s.tickets.AddTicket(context.Background(), userID, periodID))
	}
}

func (s *DrawerSuite) TestCreatePeriod() {
	ctx := context.Background()

	s.Run("valid window", func() {
		period, err := s.drawer.CreatePeriod(ctx, s.muniID, s.clock, s.clock.Add(7*24*time.Hour))
		s.Require().NoError(err)
		s.Equal(PeriodOpen, period.Status)
		s.Nil(period.WinnerUserID)
	})

	s.Run("missing municipality", func() {
		_, err := s.drawer.CreatePeriod(ctx, id.MunicipalityID{}, s.clock, s.clock.Add(time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("end before start", func() {
		_, err := s.drawer.CreatePeriod(ctx, s.muniID, s.clock, s.clock.Add(-time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *DrawerSuite) TestDrawWinner() {
	ctx := context.Background()

	s.Run("draw before the period ends", func() {
		period, err := s.drawer.CreatePeriod(ctx, s.muniID, s.clock.Add(-time.Hour), s.clock.Add(time.Hour))
		s.Require().NoError(err)

		_, err = s.drawer.DrawWinner(ctx, period.ID)
		s.True(dErrors.HasCode(err, dErrors.CodePeriodNotEnded))
	})

	s.Run("zero tickets leaves the period open", func() {
		period := s.endedPeriod()

		_, err := s.drawer.DrawWinner(ctx, period.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		found, err := s.drawer.Get(ctx, period.ID)
		s.Require().NoError(err)
		s.Equal(PeriodOpen, found.Status)
	})

	s.Run("winner comes from the ticket pool", func() {
		period := s.endedPeriod()
		alice, bob := id.NewUserID(), id.NewUserID()
		s.issueTickets(period.ID, alice, bob, bob)

		drawn, err := s.drawer.DrawWinner(ctx, period.ID)
		s.Require().NoError(err)
		s.Equal(PeriodDrawn, drawn.Status)
		s.Require().NotNil(drawn.WinnerUserID)
		s.Contains([]id.UserID{alice, bob}, *drawn.WinnerUserID)
		s.Require().NotNil(drawn.DrawnAt)
		s.Equal(s.clock, *drawn.DrawnAt)
	})

	s.Run("missing period", func() {
		_, err := s.drawer.DrawWinner(ctx, id.NewPeriodID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *DrawerSuite) TestPickerSelectsByIndex() {
	ctx := context.Background()
	period := s.endedPeriod()
	alice, bob, carol := id.NewUserID(), id.NewUserID(), id.NewUserID()
	s.issueTickets(period.ID, alice, bob, carol)

	s.drawer.WithPicker(func(n int) int {
		s.Equal(3, n)
		return 1
	})

	drawn, err := s.drawer.DrawWinner(ctx, period.ID)
	s.Require().NoError(err)
	s.Equal(bob, *drawn.WinnerUserID)
}

func (s *DrawerSuite) TestSecondDrawRejected() {
	ctx := context.Background()
	period := s.endedPeriod()
	winner := id.NewUserID()
	s.issueTickets(period.ID, winner)

	first, err := s.drawer.DrawWinner(ctx, period.ID)
	s.Require().NoError(err)

	_, err = s.drawer.DrawWinner(ctx, period.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyDrawn))

	// The recorded winner never changes.
	found, err := s.drawer.Get(ctx, period.ID)
	s.Require().NoError(err)
	s.Equal(*first.WinnerUserID, *found.WinnerUserID)
}

func (s *DrawerSuite) TestConcurrentDrawsAdmitOneWinner() {
	ctx := context.Background()
	period := s.endedPeriod()
	s.issueTickets(period.ID, id.NewUserID(), id.NewUserID(), id.NewUserID())

	const racers = 10
	results := make(chan error, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.drawer.DrawWinner(ctx, period.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyDrawn))
	}
	s.Equal(1, winners)
}

func (s *DrawerSuite) TestCurrentOpenPeriod() {
	ctx := context.Background()

	s.Run("no open period", func() {
		_, open, err := s.drawer.CurrentOpenPeriod(ctx, s.muniID)
		s.Require().NoError(err)
		s.False(open)
	})

	s.Run("open period within its window", func() {
		period, err := s.drawer.CreatePeriod(ctx, s.muniID, s.clock.Add(-time.Hour), s.clock.Add(time.Hour))
		s.Require().NoError(err)

		periodID, open, err := s.drawer.CurrentOpenPeriod(ctx, s.muniID)
		s.Require().NoError(err)
		s.True(open)
		s.Equal(period.ID, periodID)
	})

	s.Run("other municipality sees nothing", func() {
		_, open, err := s.drawer.CurrentOpenPeriod(ctx, id.NewMunicipalityID())
		s.Require().NoError(err)
		s.False(open)
	})
}
