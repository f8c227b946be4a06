package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// LoadServerConfigWithViper loads server configuration using Viper
func LoadServerConfigWithViper(v *viper.Viper) (*Config, error) {
	setServerDefaults(v)
	setupServerEnvBinding(v)

	if err := loadConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := &Config{}
	if err := unmarshalServerConfig(v, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setServerDefaults sets default values for server configuration
func setServerDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "localhost")

	v.SetDefault("database.path", "./tariffs.db")

	v.SetDefault("logging.level", "info")

	// Dashboard defaults
	v.SetDefault("dashboard.top_n", 5)
	v.SetDefault("dashboard.months", 12)
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("dashboard.cache_disabled", false)
	v.SetDefault("dashboard.cache_redis_url", "")
	v.SetDefault("dashboard.refresh_interval", "30s")
	v.SetDefault("dashboard.disable_rate_limit", false)

	// Alert defaults
	v.SetDefault("alerts.expiring_days", 7)
	v.SetDefault("alerts.price_increase_pct", "10")

	// Expiry sweep defaults
	v.SetDefault("expiry.enabled", true)
	v.SetDefault("expiry.interval", "1h")

	// Admin defaults
	v.SetDefault("admin.auth_disabled", false)
	v.SetDefault("admin.api_key", "")
}

// setupServerEnvBinding sets up environment variable binding for server configuration
func setupServerEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix("TARIFF")
	v.AutomaticEnv()

	envBindings := map[string]string{
		"server.port":                  "SERVER_PORT",
		"server.host":                  "SERVER_HOST",
		"database.path":                "DATABASE_PATH",
		"logging.level":                "LOGGING_LEVEL",
		"dashboard.top_n":              "DASHBOARD_TOP_N",
		"dashboard.months":             "DASHBOARD_MONTHS",
		"dashboard.cache_ttl":          "DASHBOARD_CACHE_TTL",
		"dashboard.cache_disabled":     "DASHBOARD_CACHE_DISABLED",
		"dashboard.cache_redis_url":    "DASHBOARD_CACHE_REDIS_URL",
		"dashboard.refresh_interval":   "DASHBOARD_REFRESH_INTERVAL",
		"dashboard.disable_rate_limit": "DASHBOARD_DISABLE_RATE_LIMIT",
		"alerts.expiring_days":         "ALERTS_EXPIRING_DAYS",
		"alerts.price_increase_pct":    "ALERTS_PRICE_INCREASE_PCT",
		"expiry.enabled":               "EXPIRY_ENABLED",
		"expiry.interval":              "EXPIRY_INTERVAL",
		"admin.api_key":                "ADMIN_API_KEY",
		"admin.auth_disabled":          "ADMIN_AUTH_DISABLED",
	}

	for configKey, envSuffix := range envBindings {
		v.BindEnv(configKey, "TARIFF_"+envSuffix)
	}
}

// loadConfigFile loads configuration file if it exists
func loadConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.tariff-dashboard")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

// unmarshalServerConfig unmarshals Viper configuration into Config struct
func unmarshalServerConfig(v *viper.Viper, config *Config) error {
	config.ServerPort = v.GetString("server.port")
	config.ServerHost = v.GetString("server.host")
	config.DBPath = v.GetString("database.path")
	config.LogLevel = v.GetString("logging.level")

	var err error
	config.CacheTTL, err = time.ParseDuration(v.GetString("dashboard.cache_ttl"))
	if err != nil {
		return fmt.Errorf("invalid cache TTL: %w", err)
	}

	config.RefreshInterval, err = time.ParseDuration(v.GetString("dashboard.refresh_interval"))
	if err != nil {
		return fmt.Errorf("invalid refresh interval: %w", err)
	}

	config.ExpiryInterval, err = time.ParseDuration(v.GetString("expiry.interval"))
	if err != nil {
		return fmt.Errorf("invalid expiry interval: %w", err)
	}

	config.PriceIncreasePct, err = decimal.NewFromString(v.GetString("alerts.price_increase_pct"))
	if err != nil {
		return fmt.Errorf("invalid price increase threshold: %w", err)
	}

	config.TopN = v.GetInt("dashboard.top_n")
	config.TrendMonths = v.GetInt("dashboard.months")
	config.ExpiringDays = v.GetInt("alerts.expiring_days")

	config.DisableCache = v.GetBool("dashboard.cache_disabled")
	config.DisableRateLimit = v.GetBool("dashboard.disable_rate_limit")
	config.ExpiryEnabled = v.GetBool("expiry.enabled")
	config.DisableAdminAuth = v.GetBool("admin.auth_disabled")

	config.AdminAPIKey = v.GetString("admin.api_key")
	config.CacheRedisURL = v.GetString("dashboard.cache_redis_url")

	return nil
}

// LoadServerConfig loads server configuration using a fresh Viper instance
func LoadServerConfig() (*Config, error) {
	v := viper.New()
	return LoadServerConfigWithViper(v)
}

// LoadServerConfigWithFile loads server configuration from a specific file
func LoadServerConfigWithFile(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadServerConfigWithViper(v)
}
