package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civictrust/internal/incentive"
	"civictrust/internal/lottery"
	"civictrust/internal/moderation"
	"civictrust/internal/platform/middleware"
	platformredis "civictrust/internal/platform/redis"
	"civictrust/internal/report"
	"civictrust/internal/verification"
)

// Handler bundles the engine services behind the public HTTP surface.
type Handler struct {
	reports    *report.Service
	ledger     *verification.Ledger
	gate       *moderation.Gate
	incentives *incentive.Engine
	drawer     *lottery.Drawer
	logger     *slog.Logger
}

func NewHandler(
	reports *report.Service,
	ledger *verification.Ledger,
	gate *moderation.Gate,
	incentives *incentive.Engine,
	drawer *lottery.Drawer,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		reports:    reports,
		ledger:     ledger,
		gate:       gate,
		incentives: incentives,
		drawer:     drawer,
		logger:     logger,
	}
}

// RouterConfig carries the transport-level collaborators the router needs.
type RouterConfig struct {
	Validator         middleware.TokenValidator
	Redis             *platformredis.Client
	SubmitLimitPerDay int
}

// NewRouter wires all public endpoints.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.Validator, h.logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.SubmitRateLimit(cfg.Redis, cfg.SubmitLimitPerDay, h.logger))
			r.Post("/reports", h.handleSubmitReport)
		})

		r.Get("/reports", h.handleListReports)
		r.Get("/reports/{reportID}", h.handleGetReport)
		r.Get("/reports/{reportID}/history", h.handleReportHistory)
		r.Post("/reports/{reportID}/votes", h.handleCastVote)
		r.Post("/reports/{reportID}/moderation", h.handleModerate)

		r.Post("/lottery/periods", h.handleCreatePeriod)
		r.Get("/lottery/periods/{periodID}", h.handleGetPeriod)
		r.Post("/lottery/periods/{periodID}/draw", h.handleDrawWinner)

		r.Get("/users/{userID}/incentives", h.handleGetIncentives)
	})

	return r
}
