package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"civictrust/internal/moderation"
	"civictrust/internal/platform/middleware"
	"civictrust/internal/report"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
)

type moderateRequest struct {
	NewStatus string `json:"new_status"`
	Notes     string `json:"notes,omitempty"`
}

func (h *Handler) handleModerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staffID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication context error"))
		return
	}
	reportID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req moderateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.gate.Moderate(ctx, moderation.Input{
		ReportID:  reportID,
		StaffID:   staffID,
		Roles:     middleware.GetRoles(ctx),
		NewStatus: report.Status(req.NewStatus),
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(rep))
}
