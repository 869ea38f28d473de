package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civictrust/internal/platform/middleware"
	"civictrust/internal/report"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
)

type submitReportRequest struct {
	LocationID  string   `json:"location_id"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	MediaRefs   []string `json:"media_refs,omitempty"`
}

type reportResponse struct {
	ID             string   `json:"id"`
	LocationID     string   `json:"location_id"`
	MunicipalityID string   `json:"municipality_id"`
	ReporterID     string   `json:"reporter_id"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Severity       string   `json:"severity"`
	Status         string   `json:"status"`
	MediaRefs      []string `json:"media_refs,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

func toReportResponse(rep *report.Report) reportResponse {
	return reportResponse{
		ID:             rep.ID.String(),
		LocationID:     rep.LocationID.String(),
		MunicipalityID: rep.MunicipalityID.String(),
		ReporterID:     rep.ReporterID.String(),
		Category:       string(rep.Category),
		Description:    rep.Description,
		Severity:       string(rep.Severity),
		Status:         string(rep.Status),
		MediaRefs:      rep.MediaRefs,
		CreatedAt:      rep.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reporterID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication context error"))
		return
	}

	var req submitReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	locationID, err := id.ParseLocationID(req.LocationID)
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.reports.Submit(ctx, report.SubmitInput{
		ReporterID:    reporterID,
		LocationID:    locationID,
		UserLatitude:  req.Latitude,
		UserLongitude: req.Longitude,
		Category:      report.Category(req.Category),
		Description:   req.Description,
		Severity:      report.Severity(req.Severity),
		MediaRefs:     req.MediaRefs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReportResponse(rep))
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := h.reports.Get(r.Context(), reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(rep))
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	var filter report.Filter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := report.Status(raw)
		if !status.Valid() {
			writeError(w, dErrors.New(dErrors.CodeValidation, "unknown status filter"))
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("municipality_id"); raw != "" {
		municipalityID, err := id.ParseMunicipalityID(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.MunicipalityID = &municipalityID
	}
	if raw := r.URL.Query().Get("exclude_user_id"); raw != "" {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.ExcludeReporter = &userID
	}

	reports, err := h.reports.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportResponse(rep))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

type historyEntryResponse struct {
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by"`
	Notes     string `json:"notes,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) handleReportHistory(w http.ResponseWriter, r *http.Request) {
	reportID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.reports.History(r.Context(), reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyEntryResponse{
			Status:    string(entry.Status),
			ChangedBy: entry.ChangedBy,
			Notes:     entry.Notes,
			Timestamp: entry.Timestamp.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}
