package incentive

import (
	"context"
	"errors"
	"log/slog"

	"civictrust/internal/incentive/metrics"
	"civictrust/internal/lifecycle"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
	"civictrust/pkg/platform/sentinel"
)

// PeriodSource resolves the currently open lottery period for a municipality.
// The active period is resolved per event rather than held as ambient state.
type PeriodSource interface {
	CurrentOpenPeriod(ctx context.Context, municipalityID id.MunicipalityID) (id.PeriodID, bool, error)
}

// Engine reacts to lifecycle events with the fixed point table:
//
//	report created   → reporter +10, +1 ticket
//	report verified  → reporter +5; each confirmer +3, +1 ticket
//	report actioned  → reporter +15
//	report rejected  → nothing
//
// After each credit it recomputes badge progress. Badge awarding is
// idempotent and irreversible.
type Engine struct {
	store   Store
	periods PeriodSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewEngine(store Store, periods PeriodSource, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{store: store, periods: periods, metrics: m, logger: logger}
}

// Run consumes lifecycle events from the bus subscription until the context
// is cancelled or the channel closes. Handling failures are logged and the
// loop keeps going; one poisoned event must not stop reward processing.
func (e *Engine) Run(ctx context.Context, inbox <-chan lifecycle.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-inbox:
			if !ok {
				return nil
			}
			if err := e.HandleEvent(ctx, event); err != nil {
				e.logger.ErrorContext(ctx, "failed to apply incentive event",
					"error", err,
					"event_type", string(event.Type),
					"report_id", event.ReportID.String(),
				)
			}
		}
	}
}

// HandleEvent applies one lifecycle event to the ledger.
func (e *Engine) HandleEvent(ctx context.Context, event lifecycle.Event) error {
	e.metrics.IncEvent(string(event.Type))

	switch event.Type {
	case lifecycle.EventReportCreated:
		if err := e.credit(ctx, event.ReporterID, PointsReportCreated, 1, 0); err != nil {
			return err
		}
		return e.issueTicket(ctx, event.ReporterID, event.MunicipalityID)

	case lifecycle.EventReportVerified:
		if err := e.credit(ctx, event.ReporterID, PointsReportVerifiedReporter, 0, 0); err != nil {
			return err
		}
		for _, verifierID := range event.VerifierIDs {
			if err := e.credit(ctx, verifierID, PointsVerificationConfirmed, 0, 1); err != nil {
				return err
			}
			if err := e.issueTicket(ctx, verifierID, event.MunicipalityID); err != nil {
				return err
			}
		}
		return nil

	case lifecycle.EventReportActioned:
		return e.credit(ctx, event.ReporterID, PointsReportActioned, 0, 0)

	case lifecycle.EventReportRejected:
		// No clawback on rejection; points stay where they are.
		return nil

	default:
		return nil
	}
}

// Account returns a user's ledger. A user with no incentive-affecting actions
// yet gets an empty account rather than an error.
func (e *Engine) Account(ctx context.Context, userID id.UserID) (*Account, error) {
	account, err := e.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &Account{UserID: userID, TicketsByPeriod: map[id.PeriodID]int{}}, nil
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load incentive account", err)
	}
	return account, nil
}

func (e *Engine) credit(ctx context.Context, userID id.UserID, points, filedDelta, verifiedDelta int) error {
	account, err := e.store.Credit(ctx, userID, points, filedDelta, verifiedDelta)
	if err != nil {
		return err
	}
	e.metrics.AddPoints(points)

	for _, badge := range account.eligibleBadges() {
		awarded, err := e.store.AwardBadge(ctx, userID, badge)
		if err != nil {
			return err
		}
		if awarded {
			e.metrics.IncBadge()
			e.logger.InfoContext(ctx, "badge awarded",
				"user_id", userID.String(),
				"badge", string(badge),
			)
		}
	}
	return nil
}

func (e *Engine) issueTicket(ctx context.Context, userID id.UserID, municipalityID id.MunicipalityID) error {
	if e.periods == nil {
		return nil
	}
	periodID, open, err := e.periods.CurrentOpenPeriod(ctx, municipalityID)
	if err != nil {
		return err
	}
	if !open {
		// No open lottery period for this municipality; the action earns
		// points but no ticket.
		return nil
	}
	if err := e.store.AddTicket(ctx, userID, periodID); err != nil {
		return err
	}
	e.metrics.IncTicket()
	return nil
}
