package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civictrust/internal/lottery"
	"civictrust/internal/moderation"
	"civictrust/internal/platform/middleware"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
)

type periodResponse struct {
	ID             string `json:"id"`
	MunicipalityID string `json:"municipality_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Status         string `json:"status"`
	WinnerUserID   string `json:"winner_user_id,omitempty"`
	DrawnAt        string `json:"drawn_at,omitempty"`
}

func toPeriodResponse(period *lottery.Period) periodResponse {
	resp := periodResponse{
		ID:             period.ID.String(),
		MunicipalityID: period.MunicipalityID.String(),
		Start:          period.Start.Format(time.RFC3339),
		End:            period.End.Format(time.RFC3339),
		Status:         string(period.Status),
	}
	if period.WinnerUserID != nil {
		resp.WinnerUserID = period.WinnerUserID.String()
	}
	if period.DrawnAt != nil {
		resp.DrawnAt = period.DrawnAt.Format(time.RFC3339)
	}
	return resp
}

type createPeriodRequest struct {
	MunicipalityID string `json:"municipality_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createPeriodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	municipalityID, err := id.ParseMunicipalityID(req.MunicipalityID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !hasRole(middleware.GetRoles(ctx), moderation.RoleAdmin, moderation.StaffRole(municipalityID)) {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "caller is not staff for this municipality"))
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "start must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "end must be RFC3339"))
		return
	}

	period, err := h.drawer.CreatePeriod(ctx, municipalityID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodResponse(period))
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, err := id.ParsePeriodID(chi.URLParam(r, "periodID"))
	if err != nil {
		writeError(w, err)
		return
	}
	period, err := h.drawer.Get(r.Context(), periodID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(period))
}

func (h *Handler) handleDrawWinner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	periodID, err := id.ParsePeriodID(chi.URLParam(r, "periodID"))
	if err != nil {
		writeError(w, err)
		return
	}

	// Draws are administrative: require staff for the period's municipality.
	period, err := h.drawer.Get(ctx, periodID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !hasRole(middleware.GetRoles(ctx), moderation.RoleAdmin, moderation.StaffRole(period.MunicipalityID)) {
		writeError(w, dErrors.New(dErrors.CodeForbidden, "caller is not staff for this municipality"))
		return
	}

	drawn, err := h.drawer.DrawWinner(ctx, periodID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(drawn))
}

func hasRole(roles []string, wanted ...string) bool {
	for _, role := range roles {
		for _, w := range wanted {
			if role == w {
				return true
			}
		}
	}
	return false
}
