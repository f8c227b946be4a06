package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-dashboard/internal/cache"
	"tariff-dashboard/internal/services"
	"tariff-dashboard/internal/tariff"
	"tariff-dashboard/internal/workers"
)

func TestAdminHandler_Expiry(t *testing.T) {
	db := setupTestDB(t)
	logger := quietLogger()

	lapsed := civil.DateOf(time.Now()).AddDays(-2)
	r := &tariff.Record{ForwarderName: "Cargo Uno", POL: "CNSHA", POD: "MXZLO", State: tariff.StateActive, VigenciaFin: &lapsed}
	require.NoError(t, db.Tariffs.Create(context.Background(), r))

	dashboard := services.NewDashboardService(db.Tariffs, nil, services.DashboardConfig{}, logger)
	sweeper := workers.NewExpirySweeper(workers.ExpirySweeperConfig{Interval: time.Hour}, db.Tariffs, dashboard, logger)
	handler := NewAdminHandler(sweeper, nil, logger)

	t.Run("Pause", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.PauseExpiry(w, httptest.NewRequest("POST", "/api/admin/expiry/pause", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, sweeper.IsPaused())
	})

	t.Run("Resume", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ResumeExpiry(w, httptest.NewRequest("POST", "/api/admin/expiry/resume", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, sweeper.IsPaused())
	})

	t.Run("Run", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.RunExpiry(w, httptest.NewRequest("POST", "/api/admin/expiry/run", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp RunExpiryResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(1), resp.Expired)

		snap := dashboard.Latest()
		require.NotNil(t, snap, "a sweep that expired tariffs should rebuild the dashboard")
		assert.Equal(t, 1, snap.Resumen.Expired)
	})

	t.Run("Status", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetExpiryStatus(w, httptest.NewRequest("GET", "/api/admin/expiry/status", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var status workers.SweepStatus
		require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
		assert.Equal(t, 1, status.TotalRuns)
		assert.Equal(t, int64(1), status.LastExpired)
		assert.False(t, status.Running)
	})
}

func TestAdminHandler_CacheStats(t *testing.T) {
	db := setupTestDB(t)
	logger := quietLogger()
	sweeper := workers.NewExpirySweeper(workers.ExpirySweeperConfig{}, db.Tariffs, nil, logger)

	t.Run("NoCache", func(t *testing.T) {
		handler := NewAdminHandler(sweeper, nil, logger)
		w := httptest.NewRecorder()
		handler.GetCacheStats(w, httptest.NewRequest("GET", "/api/admin/cache/stats", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var stats cache.CacheStats
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
		assert.True(t, stats.Disabled)
	})

	t.Run("WithCache", func(t *testing.T) {
		manager := cache.NewManager(db.SnapshotCache, false, time.Minute, logger)
		defer manager.Close()

		handler := NewAdminHandler(sweeper, manager, logger)
		w := httptest.NewRecorder()
		handler.GetCacheStats(w, httptest.NewRequest("GET", "/api/admin/cache/stats", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var stats cache.CacheStats
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
		assert.False(t, stats.Disabled)
		assert.Equal(t, "1m0s", stats.TTL)
	})
}
