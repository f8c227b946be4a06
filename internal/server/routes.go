package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tariff-dashboard/internal/cache"
	"tariff-dashboard/internal/database"
	"tariff-dashboard/internal/handlers"
	"tariff-dashboard/internal/ratelimit"
	"tariff-dashboard/internal/services"
	"tariff-dashboard/internal/workers"
)

// Dependencies are the components the HTTP API is served from
type Dependencies struct {
	DB        *database.DB
	Dashboard *services.DashboardService
	Cache     *cache.Manager
	Sweeper   *workers.ExpirySweeper
	Logger    *slog.Logger

	// RefreshLimiter throttles GET /api/dashboard?refresh=true; nil disables it
	RefreshLimiter *ratelimit.RefreshLimiter

	// AdminAPIKey guards /api/admin unless AdminAuthDisabled is set
	AdminAPIKey       string
	AdminAuthDisabled bool
}

// NewRouter builds the chi router with middleware and every API route
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	r.Use(CORSMiddleware)
	r.Use(SecurityMiddleware)

	tariffHandler := handlers.NewTariffHandler(deps.DB, deps.Dashboard, logger)
	dashboardHandler := handlers.NewDashboardHandler(deps.DB, deps.Dashboard, deps.RefreshLimiter, logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Dashboard)
	partnerHandler := handlers.NewPartnerHandler(deps.DB)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheck)

		r.Get("/dashboard", dashboardHandler.GetDashboard)
		r.Get("/dashboard/averages", dashboardHandler.GetAverages)
		r.Get("/dashboard/top/{dimension}", dashboardHandler.GetTopGroups)

		r.Get("/tariffs", tariffHandler.GetTariffs)
		r.Post("/tariffs", tariffHandler.CreateTariff)
		r.Get("/tariffs/stats", tariffHandler.GetStats)
		r.Get("/tariffs/{id}", tariffHandler.GetTariffByID)
		r.Delete("/tariffs/{id}", tariffHandler.DeleteTariff)

		r.Get("/partners", partnerHandler.GetPartners)
		r.Get("/equipment", handlers.GetEquipment)

		if deps.Sweeper != nil {
			adminHandler := handlers.NewAdminHandler(deps.Sweeper, deps.Cache, logger)
			r.Route("/admin", func(r chi.Router) {
				if !deps.AdminAuthDisabled {
					r.Use(AuthMiddleware(deps.AdminAPIKey, logger))
				}
				r.Get("/expiry/status", adminHandler.GetExpiryStatus)
				r.Post("/expiry/pause", adminHandler.PauseExpiry)
				r.Post("/expiry/resume", adminHandler.ResumeExpiry)
				r.Post("/expiry/run", adminHandler.RunExpiry)
				r.Get("/cache/stats", adminHandler.GetCacheStats)
			})
		}
	})

	return r
}
