package lottery

import (
	"context"
	"time"

	id "civictrust/pkg/domain"
)

// Store persists lottery periods.
//
// MarkDrawn is the exclusivity guard: it performs a conditional OPEN → DRAWN
// transition and returns sentinel.ErrInvalidState (wrapped) when the period
// is no longer open, so concurrent draws resolve to exactly one winner.
type Store interface {
	Create(ctx context.Context, period *Period) error
	FindByID(ctx context.Context, periodID id.PeriodID) (*Period, error)
	// FindOpenByMunicipality returns the open period covering the instant
	// `at`, or sentinel.ErrNotFound when none is open.
	FindOpenByMunicipality(ctx context.Context, municipalityID id.MunicipalityID, at time.Time) (*Period, error)
	MarkDrawn(ctx context.Context, periodID id.PeriodID, winner id.UserID, at time.Time) error
}
