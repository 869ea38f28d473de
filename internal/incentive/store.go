package incentive

import (
	"context"

	id "civictrust/pkg/domain"
)

// Store persists incentive accounts, badges, and lottery tickets.
//
// Error contract:
// - Get returns sentinel.ErrNotFound (wrapped) when no account exists yet.
// - Credit upserts the account lazily and returns its post-credit state.
// - AwardBadge is idempotent; it reports whether the badge was newly awarded.
// - TicketEntries returns one element per ticket so a draw can pick
//   uniformly: a user with N tickets appears N times.
type Store interface {
	Get(ctx context.Context, userID id.UserID) (*Account, error)
	Credit(ctx context.Context, userID id.UserID, points, reportsFiledDelta, reportsVerifiedDelta int) (*Account, error)
	AwardBadge(ctx context.Context, userID id.UserID, badge Badge) (bool, error)
	AddTicket(ctx context.Context, userID id.UserID, periodID id.PeriodID) error
	TicketEntries(ctx context.Context, periodID id.PeriodID) ([]id.UserID, error)
}
