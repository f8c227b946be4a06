package handlers

import (
	"log/slog"
	"net/http"

	"tariff-dashboard/internal/cache"
	"tariff-dashboard/internal/workers"
)

// AdminHandler handles administrative operations
type AdminHandler struct {
	sweeper *workers.ExpirySweeper
	cache   *cache.Manager
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin handler. cache may be nil.
func NewAdminHandler(sweeper *workers.ExpirySweeper, cacheManager *cache.Manager, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		sweeper: sweeper,
		cache:   cacheManager,
		logger:  logger,
	}
}

// GetExpiryStatus handles GET /api/admin/expiry/status
func (h *AdminHandler) GetExpiryStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sweeper.Status())
}

// PauseExpiry handles POST /api/admin/expiry/pause
func (h *AdminHandler) PauseExpiry(w http.ResponseWriter, r *http.Request) {
	h.sweeper.Pause()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "paused",
		"message": "Expiry sweeper has been paused",
	})
}

// ResumeExpiry handles POST /api/admin/expiry/resume
func (h *AdminHandler) ResumeExpiry(w http.ResponseWriter, r *http.Request) {
	h.sweeper.Resume()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "resumed",
		"message": "Expiry sweeper has been resumed",
	})
}

// RunExpiryResponse is the result of a manual sweep
type RunExpiryResponse struct {
	Success bool   `json:"success"`
	Expired int64  `json:"expired"`
	Error   string `json:"error,omitempty"`
}

// RunExpiry handles POST /api/admin/expiry/run
func (h *AdminHandler) RunExpiry(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Starting expiry sweep via API")

	expired, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		h.logger.Error("Manual expiry sweep failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, RunExpiryResponse{
			Success: false,
			Expired: expired,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, RunExpiryResponse{Success: true, Expired: expired})
}

// GetCacheStats handles GET /api/admin/cache/stats
func (h *AdminHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeJSON(w, http.StatusOK, cache.CacheStats{Disabled: true})
		return
	}

	stats, err := h.cache.GetStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to get cache stats", "error", err)
		http.Error(w, "Failed to get cache stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
