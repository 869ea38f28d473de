// Package moderation is the thin authorization wrapper around authoritative
// status transitions. Only municipal staff of the report's municipality (or
// admins) pass the gate.
package moderation

import (
	"context"
	"log/slog"

	"civictrust/internal/report"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
)

// Roles understood by the gate. Staff roles are municipality-scoped:
// "staff:<municipality-uuid>". RoleAdmin bypasses the scope check.
const (
	RoleAdmin       = "admin"
	roleStaffPrefix = "staff:"
)

// StaffRole builds the municipality-scoped staff role string.
func StaffRole(municipalityID id.MunicipalityID) string {
	return roleStaffPrefix + municipalityID.String()
}

type Gate struct {
	reports *report.Service
	logger  *slog.Logger
}

func NewGate(reports *report.Service, logger *slog.Logger) *Gate {
	return &Gate{reports: reports, logger: logger}
}

// Input carries one moderation request, including the caller's already
// validated identity from the auth layer.
type Input struct {
	ReportID  id.ReportID
	StaffID   id.UserID
	Roles     []string
	NewStatus report.Status
	Notes     string
}

// Moderate authorizes the caller and delegates the transition to the report
// service. Notes are mandatory when rejecting so the audit trail explains the
// decision.
func (g *Gate) Moderate(ctx context.Context, in Input) (*report.Report, error) {
	if in.StaffID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "staff identity is required")
	}
	if in.NewStatus == report.StatusRejected && in.Notes == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "notes are required when rejecting a report")
	}

	rep, err := g.reports.Get(ctx, in.ReportID)
	if err != nil {
		return nil, err
	}

	if !authorized(in.Roles, rep.MunicipalityID) {
		g.logger.WarnContext(ctx, "moderation denied",
			"staff_id", in.StaffID.String(),
			"report_id", in.ReportID.String(),
			"municipality_id", rep.MunicipalityID.String(),
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "caller is not staff for this municipality")
	}

	return g.reports.Moderate(ctx, in.ReportID, in.StaffID, in.NewStatus, in.Notes)
}

func authorized(roles []string, municipalityID id.MunicipalityID) bool {
	staffRole := StaffRole(municipalityID)
	for _, role := range roles {
		if role == RoleAdmin || role == staffRole {
			return true
		}
	}
	return false
}
