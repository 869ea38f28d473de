package moderation

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"civictrust/internal/location"
	"civictrust/internal/report"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
)

type GateSuite struct {
	suite.Suite
	gate     *Gate
	reports  *report.Service
	muniID   id.MunicipalityID
	reportID id.ReportID
	staffID  id.UserID
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	locStore := location.NewInMemoryStore()
	s.muniID = id.NewMunicipalityID()
	loc := &location.Location{
		ID:                   id.NewLocationID(),
		Name:                 "Ward 12 Public Toilet",
		Type:                 location.TypePublicToilet,
		MunicipalityID:       s.muniID,
		Latitude:             13.0012,
		Longitude:            77.5995,
		GeofenceRadiusMeters: 30,
	}
	s.Require().NoError(locStore.Save(context.Background(), loc))

	s.reports = report.NewService(report.NewInMemoryStore(), location.NewRegistry(locStore), nil, nil, logger)
	rep, err := s.reports.Submit(context.Background(), report.SubmitInput{
		ReporterID:    id.NewUserID(),
		LocationID:    loc.ID,
		UserLatitude:  loc.Latitude,
		UserLongitude: loc.Longitude,
		Category:      report.CategorySanitation,
		Description:   "no running water",
		Severity:      report.SeverityMedium,
	})
	s.Require().NoError(err)
	s.reportID = rep.ID
	s.staffID = id.NewUserID()

	s.gate = NewGate(s.reports, logger)
}

func (s *GateSuite) TestModerateAuthorization() {
	ctx := context.Background()

	s.Run("unauthenticated caller", func() {
		_, err := s.gate.Moderate(ctx, Input{ReportID: s.reportID, NewStatus: report.StatusRejected, Notes: "spam"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("no roles", func() {
		_, err := s.gate.Moderate(ctx, Input{
			ReportID: s.reportID, StaffID: s.staffID,
			NewStatus: report.StatusRejected, Notes: "spam",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("staff of another municipality", func() {
		_, err := s.gate.Moderate(ctx, Input{
			ReportID: s.reportID, StaffID: s.staffID,
			Roles:     []string{StaffRole(id.NewMunicipalityID())},
			NewStatus: report.StatusRejected, Notes: "spam",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("matching staff role passes", func() {
		rep, err := s.gate.Moderate(ctx, Input{
			ReportID: s.reportID, StaffID: s.staffID,
			Roles:     []string{StaffRole(s.muniID)},
			NewStatus: report.StatusRejected, Notes: "not reproducible on site",
		})
		s.Require().NoError(err)
		s.Equal(report.StatusRejected, rep.Status)
	})
}

func (s *GateSuite) TestAdminBypassesScope() {
	rep, err := s.gate.Moderate(context.Background(), Input{
		ReportID: s.reportID, StaffID: s.staffID,
		Roles:     []string{RoleAdmin},
		NewStatus: report.StatusRejected, Notes: "duplicate",
	})
	s.Require().NoError(err)
	s.Equal(report.StatusRejected, rep.Status)
}

func (s *GateSuite) TestRejectionRequiresNotes() {
	_, err := s.gate.Moderate(context.Background(), Input{
		ReportID: s.reportID, StaffID: s.staffID,
		Roles:     []string{RoleAdmin},
		NewStatus: report.StatusRejected,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *GateSuite) TestIllegalTransitionSurfaces() {
	_, err := s.gate.Moderate(context.Background(), Input{
		ReportID: s.reportID, StaffID: s.staffID,
		Roles:     []string{RoleAdmin},
		NewStatus: report.StatusActioned,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))
}

func (s *GateSuite) TestMissingReport() {
	_, err := s.gate.Moderate(context.Background(), Input{
		ReportID: id.NewReportID(), StaffID: s.staffID,
		Roles:     []string{RoleAdmin},
		NewStatus: report.StatusRejected, Notes: "spam",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
