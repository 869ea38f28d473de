package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"civictrust/internal/incentive"
	id "civictrust/pkg/domain"
)

type incentiveAccountResponse struct {
	UserID          string         `json:"user_id"`
	TotalPoints     int            `json:"total_points"`
	ReportsFiled    int            `json:"reports_filed"`
	ReportsVerified int            `json:"reports_verified"`
	EarnedBadges    []string       `json:"earned_badges"`
	TicketsByPeriod map[string]int `json:"tickets_by_period"`
}

func toAccountResponse(account *incentive.Account) incentiveAccountResponse {
	resp := incentiveAccountResponse{
		UserID:          account.UserID.String(),
		TotalPoints:     account.TotalPoints,
		ReportsFiled:    account.ReportsFiled,
		ReportsVerified: account.ReportsVerified,
		EarnedBadges:    []string{},
		TicketsByPeriod: map[string]int{},
	}
	for _, badge := range account.EarnedBadges {
		resp.EarnedBadges = append(resp.EarnedBadges, string(badge))
	}
	for period, n := range account.TicketsByPeriod {
		resp.TicketsByPeriod[period.String()] = n
	}
	return resp
}

func (h *Handler) handleGetIncentives(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	account, err := h.incentives.Account(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}
