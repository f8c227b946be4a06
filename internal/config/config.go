package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all server configuration
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBPath string

	// Logging
	LogLevel string

	// Dashboard snapshot
	TopN         int
	TrendMonths  int
	CacheTTL     time.Duration
	DisableCache bool

	// RefreshInterval is the minimum gap between forced rebuilds (?refresh=true)
	RefreshInterval  time.Duration
	DisableRateLimit bool

	// CacheRedisURL moves the persisted snapshot cache from SQLite to Redis
	CacheRedisURL string

	// Alerting thresholds
	ExpiringDays     int
	PriceIncreasePct decimal.Decimal

	// Expiry sweep
	ExpiryEnabled  bool
	ExpiryInterval time.Duration

	// Admin API
	AdminAPIKey      string
	DisableAdminAuth bool
}

// Load reads .env, then builds the configuration from defaults, config file and environment
func Load() (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadServerConfig()
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid server port: %s", c.ServerPort)
	}

	if c.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.TopN < 0 {
		return fmt.Errorf("dashboard top_n must be non-negative")
	}
	if c.TrendMonths < 1 {
		return fmt.Errorf("dashboard months must be at least 1")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if c.RefreshInterval < 0 {
		return fmt.Errorf("dashboard refresh_interval must be non-negative")
	}

	if c.ExpiringDays < 0 {
		return fmt.Errorf("alerts expiring_days must be non-negative")
	}
	if c.PriceIncreasePct.IsNegative() {
		return fmt.Errorf("alerts price_increase_pct must be non-negative")
	}

	if c.ExpiryEnabled && c.ExpiryInterval <= 0 {
		return fmt.Errorf("expiry interval must be positive")
	}

	if !c.DisableAdminAuth && c.AdminAPIKey == "" {
		return fmt.Errorf("TARIFF_ADMIN_API_KEY is required when admin authentication is enabled (set TARIFF_ADMIN_AUTH_DISABLED=true to disable)")
	}

	return nil
}

// GetDisableRateLimit reports whether forced rebuilds are unthrottled
func (c *Config) GetDisableRateLimit() bool {
	return c.DisableRateLimit
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.ServerHost + ":" + c.ServerPort
}

// SlogLevel maps the configured log level onto slog
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLogLevel maps a level name (case-insensitive) onto slog
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", s)
}
