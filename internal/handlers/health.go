package handlers

import (
	"net/http"
	"time"

	"tariff-dashboard/internal/database"
	"tariff-dashboard/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db        *database.DB
	dashboard *services.DashboardService
}

// NewHealthHandler creates a new health handler. dashboard may be nil.
func NewHealthHandler(db *database.DB, dashboard *services.DashboardService) *HealthHandler {
	return &HealthHandler{db: db, dashboard: dashboard}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string     `json:"status"`
	Database   string     `json:"database"`
	Message    string     `json:"message,omitempty"`
	SnapshotID string     `json:"snapshot_id,omitempty"`
	SnapshotAt *time.Time `json:"snapshot_at,omitempty"`
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:   "healthy",
		Database: "ok",
	}

	if err := h.db.IsHealthy(); err != nil {
		response.Status = "unhealthy"
		response.Database = "error"
		response.Message = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	if h.dashboard != nil {
		if snap := h.dashboard.Latest(); snap != nil {
			response.SnapshotID = snap.ID
			generated := snap.GeneratedAt
			response.SnapshotAt = &generated
		}
	}

	writeJSON(w, http.StatusOK, response)
}
