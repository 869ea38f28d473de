package lottery

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
	"civictrust/pkg/platform/sentinel"
)

// TicketSource supplies the ticket entries for a period, one element per
// ticket. Implemented by the incentive store.
type TicketSource interface {
	TicketEntries(ctx context.Context, periodID id.PeriodID) ([]id.UserID, error)
}

// Drawer selects lottery winners. A draw happens at most once per period
// even under concurrent invocation: the store's conditional OPEN → DRAWN
// update admits exactly one winner.
type Drawer struct {
	store   Store
	tickets TicketSource
	logger  *slog.Logger
	now     func() time.Time
	pick    func(n int) int
}

func NewDrawer(store Store, tickets TicketSource, logger *slog.Logger) *Drawer {
	return &Drawer{
		store:   store,
		tickets: tickets,
		logger:  logger,
		now:     time.Now,
		pick:    rand.IntN,
	}
}

// WithClock overrides the drawer clock. Test hook.
func (d *Drawer) WithClock(now func() time.Time) *Drawer {
	d.now = now
	return d
}

// WithPicker overrides the random index picker. Test hook.
func (d *Drawer) WithPicker(pick func(n int) int) *Drawer {
	d.pick = pick
	return d
}

// CreatePeriod registers a new draw window. Administrative surface.
func (d *Drawer) CreatePeriod(ctx context.Context, municipalityID id.MunicipalityID, start, end time.Time) (*Period, error) {
	if municipalityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "municipality id is required")
	}
	if !end.After(start) {
		return nil, dErrors.New(dErrors.CodeValidation, "period end must be after start")
	}
	period := &Period{
		ID:             id.NewPeriodID(),
		MunicipalityID: municipalityID,
		Start:          start,
		End:            end,
		Status:         PeriodOpen,
	}
	if err := d.store.Create(ctx, period); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create lottery period", err)
	}
	return period, nil
}

// Get returns a period by ID.
func (d *Drawer) Get(ctx context.Context, periodID id.PeriodID) (*Period, error) {
	period, err := d.store.FindByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "lottery period not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load lottery period", err)
	}
	return period, nil
}

// DrawWinner selects one ticket uniformly at random from all tickets issued
// in the period and closes it. The period must have ended.
func (d *Drawer) DrawWinner(ctx context.Context, periodID id.PeriodID) (*Period, error) {
	period, err := d.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.Status == PeriodDrawn {
		return nil, dErrors.New(dErrors.CodeAlreadyDrawn, "lottery period already drawn")
	}
	if d.now().Before(period.End) {
		return nil, dErrors.New(dErrors.CodePeriodNotEnded, "lottery period has not ended")
	}

	entries, err := d.tickets.TicketEntries(ctx, periodID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load ticket entries", err)
	}
	if len(entries) == 0 {
		// Leave the period open so a late ticket backfill or manual close can
		// still resolve it.
		return nil, dErrors.New(dErrors.CodeConflict, "no tickets were issued in this period")
	}

	winner := entries[d.pick(len(entries))]
	drawnAt := d.now()
	if err := d.store.MarkDrawn(ctx, periodID, winner, drawnAt); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Another caller won the OPEN → DRAWN race.
			return nil, dErrors.New(dErrors.CodeAlreadyDrawn, "lottery period already drawn")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "lottery period not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to close lottery period", err)
	}

	d.logger.InfoContext(ctx, "lottery winner drawn",
		"period_id", periodID.String(),
		"winner_user_id", winner.String(),
		"ticket_count", len(entries),
	)

	period.Status = PeriodDrawn
	period.WinnerUserID = &winner
	period.DrawnAt = &drawnAt
	return period, nil
}

// CurrentOpenPeriod implements the incentive engine's PeriodSource: tickets
// are issued against the period open at the time of the qualifying action.
func (d *Drawer) CurrentOpenPeriod(ctx context.Context, municipalityID id.MunicipalityID) (id.PeriodID, bool, error) {
	period, err := d.store.FindOpenByMunicipality(ctx, municipalityID, d.now())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.PeriodID{}, false, nil
		}
		return id.PeriodID{}, false, err
	}
	return period.ID, true, nil
}
