package report

import (
	"context"

	id "civictrust/pkg/domain"
)

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	Status         *Status
	MunicipalityID *id.MunicipalityID
	// ExcludeReporter drops reports filed by the given user, which is how
	// the verification feed hides a user's own reports.
	ExcludeReporter *id.UserID
}

// Store persists reports and their status history.
//
// Error contract:
// - FindByID returns sentinel.ErrNotFound (wrapped) when the report is absent.
// - Transition is a compare-and-set: it returns sentinel.ErrInvalidState when
//   the report's current status does not equal `from`, which makes racing
//   transitions resolve to exactly one winner.
// - Create persists the report and its first history entry atomically.
type Store interface {
	Create(ctx context.Context, rep *Report, first StatusHistoryEntry) error
	FindByID(ctx context.Context, reportID id.ReportID) (*Report, error)
	List(ctx context.Context, filter Filter) ([]*Report, error)
	History(ctx context.Context, reportID id.ReportID) ([]StatusHistoryEntry, error)
	Transition(ctx context.Context, reportID id.ReportID, from, to Status, entry StatusHistoryEntry) error
}
