// Package lottery manages lottery periods and winner draws. One ticket is
// one entry; a user with N tickets has N independent chances.
package lottery

import (
	"time"

	id "civictrust/pkg/domain"
)

type PeriodStatus string

const (
	PeriodOpen  PeriodStatus = "OPEN"
	PeriodDrawn PeriodStatus = "DRAWN"
)

// Period is an administratively created draw window. It transitions
// OPEN → DRAWN exactly once.
type Period struct {
	ID             id.PeriodID
	MunicipalityID id.MunicipalityID
	Start          time.Time
	End            time.Time
	Status         PeriodStatus
	WinnerUserID   *id.UserID
	DrawnAt        *time.Time
}
