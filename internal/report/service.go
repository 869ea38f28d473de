package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"civictrust/internal/geo"
	"civictrust/internal/lifecycle"
	"civictrust/internal/location"
	"civictrust/internal/report/metrics"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
	"civictrust/pkg/platform/sentinel"
)

// Emitter publishes lifecycle events after a state change has committed.
type Emitter interface {
	Emit(ctx context.Context, event lifecycle.Event) error
}

// Service is the only way reports are created or moved through the state
// machine. Peer verification and moderation both funnel through it.
type Service struct {
	store     Store
	locations *location.Registry
	events    Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store Store, locations *location.Registry, events Emitter, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		locations: locations,
		events:    events,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SubmitInput carries everything a citizen provides when filing a report.
type SubmitInput struct {
	ReporterID    id.UserID
	LocationID    id.LocationID
	UserLatitude  float64
	UserLongitude float64
	Category      Category
	Description   string
	Severity      Severity
	MediaRefs     []string
}

// Submit files a new report. The geofence check against the registered
// location is the primary anti-fraud control: a report that cannot prove
// physical presence is never persisted.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Report, error) {
	if in.ReporterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "reporter id is required")
	}
	if !in.Category.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown issue category")
	}
	if !in.Severity.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown severity")
	}
	if in.Description == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "description is required")
	}

	loc, err := s.locations.Resolve(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}

	if !geo.WithinRadius(in.UserLatitude, in.UserLongitude, loc.Latitude, loc.Longitude, loc.GeofenceRadiusMeters) {
		s.metrics.IncGeofenceFailure()
		return nil, dErrors.New(dErrors.CodeOutsideGeofence, "submission location is outside the geofence")
	}

	now := s.now()
	rep := &Report{
		ID:             id.NewReportID(),
		LocationID:     loc.ID,
		MunicipalityID: loc.MunicipalityID,
		ReporterID:     in.ReporterID,
		Category:       in.Category,
		Description:    in.Description,
		Severity:       in.Severity,
		Status:         StatusPending,
		UserLatitude:   in.UserLatitude,
		UserLongitude:  in.UserLongitude,
		MediaRefs:      in.MediaRefs,
		CreatedAt:      now,
	}
	first := StatusHistoryEntry{
		ReportID:  rep.ID,
		Status:    StatusPending,
		ChangedBy: SystemActor,
		Timestamp: now,
	}

	if err := s.store.Create(ctx, rep, first); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to persist report", err)
	}

	s.metrics.IncCreated()
	s.emit(ctx, lifecycle.Event{
		Type:           lifecycle.EventReportCreated,
		OccurredAt:     now,
		ReportID:       rep.ID,
		ReporterID:     rep.ReporterID,
		MunicipalityID: rep.MunicipalityID,
		ActorID:        lifecycle.SystemActor,
	})
	return rep, nil
}

// ApplyVerificationOutcome moves a report PENDING → VERIFIED once peer
// consensus is reached. It is idempotent: a report no longer PENDING is left
// untouched and no event is emitted, which makes duplicate invocations and
// racing threshold votes safe.
func (s *Service) ApplyVerificationOutcome(ctx context.Context, reportID id.ReportID, verifierIDs []id.UserID) error {
	rep, err := s.findReport(ctx, reportID)
	if err != nil {
		return err
	}
	if rep.Status != StatusPending {
		return nil
	}

	now := s.now()
	entry := StatusHistoryEntry{
		ReportID:  reportID,
		Status:    StatusVerified,
		ChangedBy: SystemActor,
		Notes:     "peer verification threshold reached",
		Timestamp: now,
	}
	err = s.store.Transition(ctx, reportID, StatusPending, StatusVerified, entry)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Lost the race to another verifier; the transition already
			// happened exactly once.
			return nil
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to verify report", err)
	}

	s.metrics.IncVerified()
	s.metrics.IncTransition(string(StatusVerified))
	s.emit(ctx, lifecycle.Event{
		Type:           lifecycle.EventReportVerified,
		OccurredAt:     now,
		ReportID:       reportID,
		ReporterID:     rep.ReporterID,
		MunicipalityID: rep.MunicipalityID,
		VerifierIDs:    verifierIDs,
		ActorID:        lifecycle.SystemActor,
	})
	return nil
}

// Moderate applies an authoritative transition on behalf of municipal staff.
// The caller (the moderation gate) has already authorized the staff member.
func (s *Service) Moderate(ctx context.Context, reportID id.ReportID, staffID id.UserID, newStatus Status, notes string) (*Report, error) {
	if !newStatus.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status")
	}

	rep, err := s.findReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if newStatus == StatusVerified || !CanTransition(rep.Status, newStatus) {
		// VERIFIED is reachable only through peer consensus, never staff.
		return nil, dErrors.New(dErrors.CodeIllegalTransition,
			"cannot move report from "+string(rep.Status)+" to "+string(newStatus))
	}

	now := s.now()
	entry := StatusHistoryEntry{
		ReportID:  reportID,
		Status:    newStatus,
		ChangedBy: staffID.String(),
		Notes:     notes,
		Timestamp: now,
	}
	err = s.store.Transition(ctx, reportID, rep.Status, newStatus, entry)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Wrap(dErrors.CodeIllegalTransition, "report status changed concurrently", err)
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to moderate report", err)
	}

	s.metrics.IncTransition(string(newStatus))
	rep.Status = newStatus

	switch newStatus {
	case StatusActioned:
		s.emit(ctx, lifecycle.Event{
			Type:           lifecycle.EventReportActioned,
			OccurredAt:     now,
			ReportID:       reportID,
			ReporterID:     rep.ReporterID,
			MunicipalityID: rep.MunicipalityID,
			ActorID:        staffID.String(),
		})
	case StatusRejected:
		s.emit(ctx, lifecycle.Event{
			Type:           lifecycle.EventReportRejected,
			OccurredAt:     now,
			ReportID:       reportID,
			ReporterID:     rep.ReporterID,
			MunicipalityID: rep.MunicipalityID,
			ActorID:        staffID.String(),
		})
	}
	return rep, nil
}

// Get returns a single report.
func (s *Service) Get(ctx context.Context, reportID id.ReportID) (*Report, error) {
	return s.findReport(ctx, reportID)
}

// History returns the append-only status log for a report.
func (s *Service) History(ctx context.Context, reportID id.ReportID) ([]StatusHistoryEntry, error) {
	entries, err := s.store.History(ctx, reportID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load report history", err)
	}
	return entries, nil
}

// List returns reports matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Report, error) {
	reports, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list reports", err)
	}
	return reports, nil
}

func (s *Service) findReport(ctx context.Context, reportID id.ReportID) (*Report, error) {
	rep, err := s.store.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load report", err)
	}
	return rep, nil
}

// emit publishes after commit; delivery failures are logged, never surfaced,
// so a slow consumer cannot fail a transition.
func (s *Service) emit(ctx context.Context, event lifecycle.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit lifecycle event",
			"error", err,
			"event_type", string(event.Type),
			"report_id", event.ReportID.String(),
		)
	}
}
