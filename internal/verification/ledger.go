package verification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"civictrust/internal/geo"
	"civictrust/internal/location"
	"civictrust/internal/report"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
	"civictrust/pkg/platform/sentinel"
)

// DefaultConsensusThreshold is the fallback when no municipality policy is
// configured.
const DefaultConsensusThreshold = 2

// Ledger aggregates peer verification votes. Once the CONFIRM tally reaches
// the consensus threshold it asks the report service to apply the verified
// outcome. The threshold is municipality policy injected at construction.
type Ledger struct {
	store     Store
	reports   *report.Service
	locations *location.Registry
	threshold int
	logger    *slog.Logger
	now       func() time.Time

	// locks serializes the whole read-tally-decide sequence per report in
	// this process, so no vote is recorded against a report after another
	// voter's tally closed it. Across processes the store's conditional
	// upsert is the guard.
	locks keyedMutex
}

func NewLedger(store Store, reports *report.Service, locations *location.Registry, threshold int, logger *slog.Logger) *Ledger {
	if threshold <= 0 {
		threshold = DefaultConsensusThreshold
	}
	return &Ledger{
		store:     store,
		reports:   reports,
		locations: locations,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the ledger clock. Test hook.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CastVoteInput carries one verification vote.
type CastVoteInput struct {
	ReportID       id.ReportID
	VoterID        id.UserID
	Decision       Decision
	VoterLatitude  float64
	VoterLongitude float64
}

// CastVote records (or replaces) a voter's judgement on a report. A verifier
// must be physically present inside the same geofence as the original
// submission; that mirrors the anti-fraud control on Submit.
func (l *Ledger) CastVote(ctx context.Context, in CastVoteInput) (*Vote, error) {
	if in.VoterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "voter id is required")
	}
	if !in.Decision.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "decision must be CONFIRM or DISPUTE")
	}

	// The status read must happen under the same lock as the upsert and
	// tally; otherwise a voter that saw PENDING can land a vote on a report
	// another voter just verified.
	unlock := l.locks.lock(in.ReportID)
	defer unlock()

	rep, err := l.reports.Get(ctx, in.ReportID)
	if err != nil {
		return nil, err
	}
	if rep.ReporterID == in.VoterID {
		return nil, dErrors.New(dErrors.CodeSelfVerification, "reporters cannot verify their own reports")
	}
	if rep.Status != report.StatusPending {
		return nil, dErrors.New(dErrors.CodeReportNotOpen, "report is not open for verification")
	}

	loc, err := l.locations.Resolve(ctx, rep.LocationID)
	if err != nil {
		return nil, err
	}
	if !geo.WithinRadius(in.VoterLatitude, in.VoterLongitude, loc.Latitude, loc.Longitude, loc.GeofenceRadiusMeters) {
		return nil, dErrors.New(dErrors.CodeOutsideGeofence, "voter location is outside the geofence")
	}

	vote := &Vote{
		ReportID:       in.ReportID,
		VoterID:        in.VoterID,
		Decision:       in.Decision,
		VoterLatitude:  in.VoterLatitude,
		VoterLongitude: in.VoterLongitude,
		CreatedAt:      l.now(),
	}
	if err := l.store.Upsert(ctx, vote); err != nil {
		// The store refuses to record against a report that is no longer
		// PENDING; that closes the race with other instances sharing the
		// database, where this process-local lock cannot reach.
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeReportNotOpen, "report is not open for verification")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to record vote", err)
	}

	confirmers, err := l.store.Confirmers(ctx, in.ReportID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to tally votes", err)
	}
	if len(confirmers) >= l.threshold {
		// ApplyVerificationOutcome is idempotent, so reaching this branch
		// twice under contention still transitions the report exactly once.
		if err := l.reports.ApplyVerificationOutcome(ctx, in.ReportID, confirmers); err != nil {
			return nil, err
		}
	}
	return vote, nil
}

// Votes returns all current votes on a report.
func (l *Ledger) Votes(ctx context.Context, reportID id.ReportID) ([]*Vote, error) {
	votes, err := l.store.ListByReport(ctx, reportID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list votes", err)
	}
	return votes, nil
}

// keyedMutex provides one mutex per report ID.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[id.ReportID]*sync.Mutex
}

func (k *keyedMutex) lock(key id.ReportID) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[id.ReportID]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
