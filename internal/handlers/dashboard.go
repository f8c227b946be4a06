package handlers

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/database"
	"tariff-dashboard/internal/ratelimit"
	"tariff-dashboard/internal/services"
	"tariff-dashboard/internal/tariff"
)

// dimensions maps the path names accepted by GetTopGroups to key functions
var dimensions = map[string]aggregator.KeyFunc{
	"forwarder": aggregator.ByForwarder,
	"carrier":   aggregator.ByCarrier,
	"route":     aggregator.ByRoute,
	"equipment": aggregator.ByEquipment,
	"country":   aggregator.ByCountry,
	"period":    aggregator.ByPeriod,
}

// DashboardHandler serves dashboard snapshots and ad-hoc groupings
type DashboardHandler struct {
	db      *database.DB
	service *services.DashboardService
	limiter *ratelimit.RefreshLimiter
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler. A nil limiter leaves
// forced rebuilds unthrottled.
func NewDashboardHandler(db *database.DB, service *services.DashboardService, limiter *ratelimit.RefreshLimiter, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{db: db, service: service, limiter: limiter, logger: logger}
}

// GetDashboard handles GET /api/dashboard. ?refresh=true forces a rebuild.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	if force && h.limiter != nil {
		if result := h.limiter.Allow(); result.ShouldBlock {
			remaining := result.RemainingTime.Truncate(time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Seconds())+1))
			http.Error(w, fmt.Sprintf("Rate limit exceeded. Please wait %v before refreshing again", remaining), http.StatusTooManyRequests)
			return
		}
	}

	snapshot, err := h.service.Snapshot(r.Context(), force)
	if err != nil {
		h.logger.Error("Failed to build dashboard snapshot", "error", err)
		http.Error(w, "Failed to build dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("X-Snapshot-ID", snapshot.ID)
	writeJSON(w, http.StatusOK, snapshot)
}

// GetTopGroups handles GET /api/dashboard/top/{dimension}. Tariffs are
// narrowed by the usual filter parameters. n limits the ranking: default 5
// (12 months for the period trend), 0 for none, negative for all.
func (h *DashboardHandler) GetTopGroups(w http.ResponseWriter, r *http.Request) {
	dimension := chi.URLParam(r, "dimension")
	key, ok := dimensions[dimension]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown dimension: %s", dimension), http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	n := 5
	if dimension == "period" {
		n = aggregator.DefaultMonths
	}
	if raw := query.Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid n", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	query.Del("n")

	filter, err := tariff.ParseFilter(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.db.Tariffs.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list tariffs for grouping", "dimension", dimension, "error", err)
		http.Error(w, "Failed to get tariffs", http.StatusInternalServerError)
		return
	}

	var groups []aggregator.GroupSummary
	switch {
	case dimension == "period" && n == 0:
		groups = []aggregator.GroupSummary{}
	case dimension == "period" && n < 0:
		groups = aggregator.MonthlyTrend(records, math.MaxInt)
	case dimension == "period":
		groups = aggregator.MonthlyTrend(records, n)
	default:
		groups = aggregator.TopByDimension(records, key, n, nil)
	}

	writeJSON(w, http.StatusOK, groups)
}

// GetAverages handles GET /api/dashboard/averages with the usual filter parameters
func (h *DashboardHandler) GetAverages(w http.ResponseWriter, r *http.Request) {
	filter, err := tariff.ParseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.db.Tariffs.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list tariffs for averages", "error", err)
		http.Error(w, "Failed to get tariffs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"resumen":   aggregator.SummarizeTotals(records),
		"promedios": aggregator.SummarizeAverages(records, aggregator.DashboardFields),
		"variation": aggregator.MonthOverMonth(records, time.Now()),
	})
}
