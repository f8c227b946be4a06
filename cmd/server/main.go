package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/cache"
	"tariff-dashboard/internal/config"
	"tariff-dashboard/internal/database"
	"tariff-dashboard/internal/ratelimit"
	"tariff-dashboard/internal/server"
	"tariff-dashboard/internal/services"
	"tariff-dashboard/internal/workers"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Initialize database
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	logger.Info("Database initialized", "path", cfg.DBPath)

	var snapshotStore cache.Store = db.SnapshotCache
	var redisStore *cache.RedisStore
	if cfg.CacheRedisURL != "" && !cfg.DisableCache {
		redisStore, err = cache.NewRedisStore(context.Background(), cfg.CacheRedisURL)
		if err != nil {
			logger.Error("Failed to connect snapshot cache to Redis", "error", err)
			os.Exit(1)
		}
		snapshotStore = redisStore
		logger.Info("Snapshot cache stored in Redis")
	}

	cacheManager := cache.NewManager(snapshotStore, cfg.DisableCache, cfg.CacheTTL, logger)

	// A disabled manager always misses, so the service keeps its own copy instead
	var snapshotCache services.SnapshotCache
	if !cfg.DisableCache {
		snapshotCache = cacheManager
	}

	dashboard := services.NewDashboardService(db.Tariffs, snapshotCache, services.DashboardConfig{
		TopN:   cfg.TopN,
		Months: cfg.TrendMonths,
		Alerts: aggregator.AlertOptions{
			ExpiringWithinDays: cfg.ExpiringDays,
			PriceIncreasePct:   cfg.PriceIncreasePct,
		},
		MaxAge: cfg.CacheTTL,
	}, logger)

	sweeper := workers.NewExpirySweeper(workers.ExpirySweeperConfig{
		Enabled:      cfg.ExpiryEnabled,
		Interval:     cfg.ExpiryInterval,
		InitialDelay: 5 * time.Second,
	}, db.Tariffs, dashboard, logger)
	sweeper.Start()

	router := server.NewRouter(server.Dependencies{
		DB:                db,
		Dashboard:         dashboard,
		Cache:             cacheManager,
		Sweeper:           sweeper,
		Logger:            logger,
		RefreshLimiter:    ratelimit.NewRefreshLimiter(cfg, cfg.RefreshInterval),
		AdminAPIKey:       cfg.AdminAPIKey,
		AdminAuthDisabled: cfg.DisableAdminAuth,
	})

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: router,

		// Timeouts
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle server startup and graceful shutdown
	shutdownTimeout := 30 * time.Second
	err = server.HandleSignals(srv, shutdownTimeout, logger,
		sweeper.Stop,
		cacheManager.Close,
		func() {
			if redisStore != nil {
				redisStore.Close()
			}
		},
		func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database", "error", err)
			}
		},
	)
	if err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
