package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tariff-dashboard/internal/database"
	"tariff-dashboard/internal/services"
	"tariff-dashboard/internal/tariff"
)

// TariffHandler handles HTTP requests for tariffs
type TariffHandler struct {
	db        *database.DB
	dashboard *services.DashboardService
	logger    *slog.Logger
}

// NewTariffHandler creates a new tariff handler. dashboard may be nil.
func NewTariffHandler(db *database.DB, dashboard *services.DashboardService, logger *slog.Logger) *TariffHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TariffHandler{db: db, dashboard: dashboard, logger: logger}
}

// GetTariffs handles GET /api/tariffs. Query parameters filter the list the
// same way a dashboard group's key does.
func (h *TariffHandler) GetTariffs(w http.ResponseWriter, r *http.Request) {
	filter, err := tariff.ParseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.db.Tariffs.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list tariffs", "filter", filter, "error", err)
		http.Error(w, fmt.Sprintf("Failed to get tariffs: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// CreateTariff handles POST /api/tariffs
func (h *TariffHandler) CreateTariff(w http.ResponseWriter, r *http.Request) {
	var record tariff.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		h.logger.Warn("Invalid JSON in CreateTariff", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validateTariff(&record); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.Tariffs.Create(r.Context(), &record); err != nil {
		if errors.Is(err, database.ErrUnknownPartner) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to create tariff", "error", err)
		http.Error(w, fmt.Sprintf("Failed to create tariff: %v", err), http.StatusInternalServerError)
		return
	}

	h.invalidateDashboard(r)

	h.logger.Info("Tariff created", "id", record.ID, "name", record.Name)
	writeJSON(w, http.StatusCreated, record)
}

// GetTariffByID handles GET /api/tariffs/{id}
func (h *TariffHandler) GetTariffByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	record, err := h.db.Tariffs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Tariff not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get tariff", "id", id, "error", err)
		http.Error(w, fmt.Sprintf("Failed to get tariff: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// DeleteTariff handles DELETE /api/tariffs/{id}
func (h *TariffHandler) DeleteTariff(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.db.Tariffs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Tariff not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to delete tariff", "id", id, "error", err)
		http.Error(w, fmt.Sprintf("Failed to delete tariff: %v", err), http.StatusInternalServerError)
		return
	}

	h.invalidateDashboard(r)

	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /api/tariffs/stats: count and average all-in per state
func (h *TariffHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	groups, err := h.db.Tariffs.GroupByState(r.Context())
	if err != nil {
		h.logger.Error("Failed to group tariffs by state", "error", err)
		http.Error(w, "Failed to get tariff statistics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

func (h *TariffHandler) invalidateDashboard(r *http.Request) {
	if h.dashboard != nil {
		h.dashboard.Invalidate(r.Context())
	}
}

// validateTariff checks required fields before insert
func validateTariff(r *tariff.Record) error {
	r.POL = strings.ToUpper(strings.TrimSpace(r.POL))
	r.POD = strings.ToUpper(strings.TrimSpace(r.POD))
	r.CountryID = strings.ToUpper(strings.TrimSpace(r.CountryID))

	if r.ForwarderID == 0 && strings.TrimSpace(r.ForwarderName) == "" {
		return fmt.Errorf("forwarder_id or forwarder_name is required")
	}
	if r.POL == "" {
		return fmt.Errorf("pol_id is required")
	}
	if r.POD == "" {
		return fmt.Errorf("pod_id is required")
	}
	if r.Equipo != "" && !r.Equipo.IsValid() {
		return fmt.Errorf("unknown equipment code: %s", r.Equipo)
	}
	if r.State != "" && r.State != tariff.StateActive && r.State != tariff.StateExpired {
		return fmt.Errorf("invalid state: %s", r.State)
	}

	amounts := map[string]tariff.Amount{
		"ocean_freight": r.OceanFreight,
		"ams_imo":       r.AmsImo,
		"lib_seguro":    r.LibSeguro,
		"all_in":        r.AllIn,
		"transit_time":  r.TransitTime,
		"demoras":       r.Demoras,
	}
	for name, a := range amounts {
		if a.Valid && a.Decimal.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if r.Mes != 0 && (r.Mes < 1 || r.Mes > 12) {
		return fmt.Errorf("invalid mes: %d", r.Mes)
	}

	return nil
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid tariff ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
