// Package report owns the Report entity and its lifecycle state machine.
// Status is mutated only through the state machine; every transition appends
// a history entry, so the current status is always the projection of the most
// recent entry.
package report

import (
	"time"

	id "civictrust/pkg/domain"
)

// Status is the lifecycle state of a report.
//
// PENDING → VERIFIED → IN_PROGRESS → ACTIONED, with REJECTED reachable from
// PENDING or VERIFIED. ACTIONED and REJECTED are terminal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusVerified   Status = "VERIFIED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusActioned   Status = "ACTIONED"
	StatusRejected   Status = "REJECTED"
)

// transitions is the single source of truth for legal status moves.
var transitions = map[Status][]Status{
	StatusPending:    {StatusVerified, StatusRejected},
	StatusVerified:   {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusActioned},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusInProgress, StatusActioned, StatusRejected:
		return true
	}
	return false
}

// Severity of the reported issue.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Category of the reported issue.
type Category string

const (
	CategoryRoad        Category = "ROAD"
	CategoryWater       Category = "WATER"
	CategorySanitation  Category = "SANITATION"
	CategoryElectricity Category = "ELECTRICITY"
	CategoryOther       Category = "OTHER"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRoad, CategoryWater, CategorySanitation, CategoryElectricity, CategoryOther:
		return true
	}
	return false
}

// SystemActor marks history entries written by the engine rather than staff.
const SystemActor = "SYSTEM"

// Report is a citizen-filed issue bound to a registered location. Reports are
// never hard-deleted.
type Report struct {
	ID             id.ReportID
	LocationID     id.LocationID
	MunicipalityID id.MunicipalityID
	ReporterID     id.UserID
	Category       Category
	Description    string
	Severity       Severity
	Status         Status
	UserLatitude   float64
	UserLongitude  float64
	MediaRefs      []string
	CreatedAt      time.Time
}

// StatusHistoryEntry is one row of the append-only transition log. The first
// entry for every report is PENDING, written by SYSTEM at creation.
type StatusHistoryEntry struct {
	ReportID  id.ReportID
	Status    Status
	ChangedBy string
	Notes     string
	Timestamp time.Time
}
