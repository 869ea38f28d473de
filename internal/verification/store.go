package verification

import (
	"context"

	id "civictrust/pkg/domain"
)

// Store persists verification votes.
//
// Upsert replaces any prior vote by the same voter on the same report; it
// never duplicates. Implementations that can see the report's state refuse
// to record against a report that is no longer PENDING and return
// sentinel.ErrInvalidState. Confirmers returns the voter IDs whose current
// decision is CONFIRM, in vote order.
type Store interface {
	Upsert(ctx context.Context, vote *Vote) error
	ListByReport(ctx context.Context, reportID id.ReportID) ([]*Vote, error)
	Confirmers(ctx context.Context, reportID id.ReportID) ([]id.UserID, error)
}
