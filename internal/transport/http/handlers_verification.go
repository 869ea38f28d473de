package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"civictrust/internal/platform/middleware"
	"civictrust/internal/verification"
	id "civictrust/pkg/domain"
	dErrors "civictrust/pkg/domain-errors"
)

type castVoteRequest struct {
	Decision  string  `json:"decision"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	voterID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication context error"))
		return
	}
	reportID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req castVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	vote, err := h.ledger.CastVote(ctx, verification.CastVoteInput{
		ReportID:       reportID,
		VoterID:        voterID,
		Decision:       verification.Decision(req.Decision),
		VoterLatitude:  req.Latitude,
		VoterLongitude: req.Longitude,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"report_id": vote.ReportID.String(),
		"voter_id":  vote.VoterID.String(),
		"decision":  string(vote.Decision),
	})
}
