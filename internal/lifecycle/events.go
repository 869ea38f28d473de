// Package lifecycle defines the domain events emitted by report state
// transitions and the in-process fan-out that delivers them. Emission is
// never on the critical path of a transition: consumers see events after the
// authoritative state change has committed.
package lifecycle

import (
	"time"

	id "civictrust/pkg/domain"
)

type EventType string

const (
	EventReportCreated  EventType = "report.created"
	EventReportVerified EventType = "report.verified"
	EventReportActioned EventType = "report.actioned"
	EventReportRejected EventType = "report.rejected"
)

// SystemActor marks transitions performed by the engine itself rather than a
// staff member.
const SystemActor = "SYSTEM"

// Event is a lifecycle fact about a report. Keep it transport-agnostic so the
// incentive engine, the outbox relay, and future consumers can fan out.
type Event struct {
	Type           EventType
	OccurredAt     time.Time
	ReportID       id.ReportID
	ReporterID     id.UserID
	MunicipalityID id.MunicipalityID

	// VerifierIDs lists the confirming voters; set on report.verified only.
	VerifierIDs []id.UserID

	// ActorID is the staff user behind a moderation transition, or
	// SystemActor for engine-driven ones.
	ActorID string
}
