// Package verification records peer verification votes and decides when
// consensus auto-verifies a report.
package verification

import (
	"time"

	id "civictrust/pkg/domain"
)

// Decision is a voter's judgement on a report.
type Decision string

const (
	DecisionConfirm Decision = "CONFIRM"
	DecisionDispute Decision = "DISPUTE"
)

func (d Decision) Valid() bool {
	return d == DecisionConfirm || d == DecisionDispute
}

// Vote is one voter's current judgement on one report. Exactly one vote per
// (report, voter) pair exists at any time: re-voting replaces the prior vote.
type Vote struct {
	ReportID       id.ReportID
	VoterID        id.UserID
	Decision       Decision
	VoterLatitude  float64
	VoterLongitude float64
	CreatedAt      time.Time
}
