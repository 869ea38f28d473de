// Package incentive computes the participation rewards that lifecycle events
// trigger: points, badges, and lottery tickets. Point totals never decrease
// under normal lifecycle events; there is no clawback on rejection.
package incentive

import (
	id "civictrust/pkg/domain"
)

// Point values per lifecycle event. Fixed and auditable; changing them is a
// policy decision, not a code path.
const (
	PointsReportCreated          = 10
	PointsReportVerifiedReporter = 5
	PointsVerificationConfirmed  = 3
	PointsReportActioned         = 15
)

// Badge is an irreversible award.
type Badge string

const (
	BadgeFirstResponder    Badge = "FIRST_RESPONDER"
	BadgeNeighborhoodWatch Badge = "NEIGHBORHOOD_WATCH"
	BadgeCivicChampion     Badge = "CIVIC_CHAMPION"
)

// BadgeRule awards a badge once all three counters cross its thresholds.
type BadgeRule struct {
	Badge              Badge
	MinPoints          int
	MinReportsFiled    int
	MinReportsVerified int
}

// badgeCatalog is ordered from easiest to hardest; awarding walks the whole
// catalog so a large credit can unlock several badges at once.
var badgeCatalog = []BadgeRule{
	{Badge: BadgeFirstResponder, MinPoints: 10, MinReportsFiled: 1, MinReportsVerified: 0},
	{Badge: BadgeNeighborhoodWatch, MinPoints: 50, MinReportsFiled: 3, MinReportsVerified: 2},
	{Badge: BadgeCivicChampion, MinPoints: 150, MinReportsFiled: 10, MinReportsVerified: 5},
}

// Catalog exposes the badge rules for read surfaces.
func Catalog() []BadgeRule {
	return append([]BadgeRule(nil), badgeCatalog...)
}

// Account is a user's incentive ledger. Created lazily on the first
// incentive-affecting action, mutated only by the engine, never deleted.
type Account struct {
	UserID id.UserID

	TotalPoints int

	// ReportsFiled counts reports the user submitted; ReportsVerified counts
	// verifications the user performed that confirmed a report.
	ReportsFiled    int
	ReportsVerified int

	EarnedBadges    []Badge
	TicketsByPeriod map[id.PeriodID]int
}

// HasBadge reports whether the badge was already awarded.
func (a *Account) HasBadge(badge Badge) bool {
	for _, b := range a.EarnedBadges {
		if b == badge {
			return true
		}
	}
	return false
}

// eligibleBadges returns the catalog badges whose thresholds the account
// meets but does not hold yet.
func (a *Account) eligibleBadges() []Badge {
	var eligible []Badge
	for _, rule := range badgeCatalog {
		if a.HasBadge(rule.Badge) {
			continue
		}
		if a.TotalPoints >= rule.MinPoints &&
			a.ReportsFiled >= rule.MinReportsFiled &&
			a.ReportsVerified >= rule.MinReportsVerified {
			eligible = append(eligible, rule.Badge)
		}
	}
	return eligible
}
