package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

func TestServerViperConfig_LoadFromDefaults(t *testing.T) {
	clearEnvVars()
	t.Setenv("TARIFF_ADMIN_AUTH_DISABLED", "true")

	v := viper.New()
	config, err := LoadServerConfigWithViper(v)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.ServerPort != "8080" {
		t.Errorf("Expected ServerPort to be '8080', got '%s'", config.ServerPort)
	}
	if config.ServerHost != "localhost" {
		t.Errorf("Expected ServerHost to be 'localhost', got '%s'", config.ServerHost)
	}
	if config.DBPath != "./tariffs.db" {
		t.Errorf("Expected DBPath to be './tariffs.db', got '%s'", config.DBPath)
	}
	if config.LogLevel != "info" {
		t.Errorf("Expected LogLevel to be 'info', got '%s'", config.LogLevel)
	}
	if config.TopN != 5 || config.TrendMonths != 12 {
		t.Errorf("Expected top 5 over 12 months, got top %d over %d", config.TopN, config.TrendMonths)
	}
	if config.CacheTTL != 5*time.Minute {
		t.Errorf("Expected CacheTTL to be 5m, got %v", config.CacheTTL)
	}
	if config.ExpiringDays != 7 {
		t.Errorf("Expected ExpiringDays to be 7, got %d", config.ExpiringDays)
	}
	if !config.PriceIncreasePct.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected PriceIncreasePct to be 10, got %s", config.PriceIncreasePct)
	}
	if !config.ExpiryEnabled || config.ExpiryInterval != time.Hour {
		t.Errorf("Expected hourly expiry sweep, got enabled=%v interval=%v", config.ExpiryEnabled, config.ExpiryInterval)
	}
	if config.DisableCache {
		t.Errorf("Expected cache to be enabled by default")
	}
}

func TestServerViperConfig_LoadFromEnvironment(t *testing.T) {
	clearEnvVars()

	envVars := map[string]string{
		"TARIFF_SERVER_PORT":                  "9090",
		"TARIFF_SERVER_HOST":                  "0.0.0.0",
		"TARIFF_DATABASE_PATH":                "./test.db",
		"TARIFF_LOGGING_LEVEL":                "debug",
		"TARIFF_DASHBOARD_TOP_N":              "10",
		"TARIFF_DASHBOARD_MONTHS":             "6",
		"TARIFF_DASHBOARD_CACHE_TTL":          "10m",
		"TARIFF_DASHBOARD_CACHE_DISABLED":     "true",
		"TARIFF_DASHBOARD_CACHE_REDIS_URL":    "redis://localhost:6379/2",
		"TARIFF_DASHBOARD_REFRESH_INTERVAL":   "1m",
		"TARIFF_DASHBOARD_DISABLE_RATE_LIMIT": "true",
		"TARIFF_ALERTS_EXPIRING_DAYS":         "14",
		"TARIFF_ALERTS_PRICE_INCREASE_PCT":    "2.5",
		"TARIFF_EXPIRY_ENABLED":               "false",
		"TARIFF_EXPIRY_INTERVAL":              "15m",
		"TARIFF_ADMIN_API_KEY":                "test-admin-key",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	v := viper.New()
	config, err := LoadServerConfigWithViper(v)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Address() != "0.0.0.0:9090" {
		t.Errorf("Expected address '0.0.0.0:9090', got '%s'", config.Address())
	}
	if config.DBPath != "./test.db" {
		t.Errorf("Expected DBPath to be './test.db', got '%s'", config.DBPath)
	}
	if config.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be 'debug', got '%s'", config.LogLevel)
	}
	if config.TopN != 10 || config.TrendMonths != 6 {
		t.Errorf("Expected top 10 over 6 months, got top %d over %d", config.TopN, config.TrendMonths)
	}
	if config.CacheTTL != 10*time.Minute || !config.DisableCache {
		t.Errorf("Expected disabled 10m cache, got ttl=%v disabled=%v", config.CacheTTL, config.DisableCache)
	}
	if config.CacheRedisURL != "redis://localhost:6379/2" {
		t.Errorf("Expected CacheRedisURL from environment, got '%s'", config.CacheRedisURL)
	}
	if config.RefreshInterval != time.Minute || !config.GetDisableRateLimit() {
		t.Errorf("Expected unthrottled 1m refresh, got interval=%v disabled=%v", config.RefreshInterval, config.DisableRateLimit)
	}
	if config.ExpiringDays != 14 {
		t.Errorf("Expected ExpiringDays to be 14, got %d", config.ExpiringDays)
	}
	if !config.PriceIncreasePct.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected PriceIncreasePct to be 2.5, got %s", config.PriceIncreasePct)
	}
	if config.ExpiryEnabled || config.ExpiryInterval != 15*time.Minute {
		t.Errorf("Expected disabled 15m sweep, got enabled=%v interval=%v", config.ExpiryEnabled, config.ExpiryInterval)
	}
	if config.AdminAPIKey != "test-admin-key" || config.DisableAdminAuth {
		t.Errorf("Expected admin auth with key, got key=%q disabled=%v", config.AdminAPIKey, config.DisableAdminAuth)
	}
}

func TestServerViperConfig_LoadFromYAMLFile(t *testing.T) {
	clearEnvVars()

	configContent := `
server:
  port: "7070"
  host: "127.0.0.1"
database:
  path: "/var/lib/tariffs.db"
logging:
  level: "warn"
dashboard:
  top_n: 3
  months: 24
  cache_ttl: "1m"
alerts:
  expiring_days: 30
  price_increase_pct: "15"
expiry:
  interval: "30m"
admin:
  api_key: "yaml-key"
`
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadServerConfigWithFile(configFile)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Address() != "127.0.0.1:7070" {
		t.Errorf("Expected address '127.0.0.1:7070', got '%s'", config.Address())
	}
	if config.DBPath != "/var/lib/tariffs.db" {
		t.Errorf("Expected DBPath from file, got '%s'", config.DBPath)
	}
	if config.LogLevel != "warn" {
		t.Errorf("Expected LogLevel to be 'warn', got '%s'", config.LogLevel)
	}
	if config.TopN != 3 || config.TrendMonths != 24 {
		t.Errorf("Expected top 3 over 24 months, got top %d over %d", config.TopN, config.TrendMonths)
	}
	if config.CacheTTL != time.Minute {
		t.Errorf("Expected CacheTTL to be 1m, got %v", config.CacheTTL)
	}
	if config.ExpiringDays != 30 {
		t.Errorf("Expected ExpiringDays to be 30, got %d", config.ExpiringDays)
	}
	if !config.PriceIncreasePct.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected PriceIncreasePct to be 15, got %s", config.PriceIncreasePct)
	}
	if config.ExpiryInterval != 30*time.Minute {
		t.Errorf("Expected ExpiryInterval to be 30m, got %v", config.ExpiryInterval)
	}
	if config.AdminAPIKey != "yaml-key" {
		t.Errorf("Expected AdminAPIKey from file, got '%s'", config.AdminAPIKey)
	}
}

func TestServerViperConfig_EnvironmentOverridesFile(t *testing.T) {
	clearEnvVars()
	t.Setenv("TARIFF_SERVER_PORT", "6060")

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"7070\"\nadmin:\n  auth_disabled: true\n"
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadServerConfigWithFile(configFile)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.ServerPort != "6060" {
		t.Errorf("Expected environment port 6060 to win, got %s", config.ServerPort)
	}
}

func TestServerViperConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		errorMsg string
	}{
		{
			name: "invalid server port",
			envVars: map[string]string{
				"TARIFF_SERVER_PORT":         "not-a-number",
				"TARIFF_ADMIN_AUTH_DISABLED": "true",
			},
			errorMsg: "invalid configuration: invalid server port: not-a-number",
		},
		{
			name: "invalid log level",
			envVars: map[string]string{
				"TARIFF_LOGGING_LEVEL":       "invalid",
				"TARIFF_ADMIN_AUTH_DISABLED": "true",
			},
			errorMsg: "invalid configuration: invalid log level: invalid (must be one of: debug, info, warn, error)",
		},
		{
			name: "zero trend months",
			envVars: map[string]string{
				"TARIFF_DASHBOARD_MONTHS":    "0",
				"TARIFF_ADMIN_AUTH_DISABLED": "true",
			},
			errorMsg: "invalid configuration: dashboard months must be at least 1",
		},
		{
			name: "admin key required when auth enabled",
			envVars: map[string]string{
				"TARIFF_ADMIN_AUTH_DISABLED": "false",
			},
			errorMsg: "invalid configuration: TARIFF_ADMIN_API_KEY is required when admin authentication is enabled (set TARIFF_ADMIN_AUTH_DISABLED=true to disable)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			_, err := LoadServerConfigWithViper(viper.New())
			if err == nil {
				t.Fatalf("Expected error, got nil")
			}
			if err.Error() != tt.errorMsg {
				t.Errorf("Expected error message '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestServerViperConfig_UnparsableValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"cache ttl", "TARIFF_DASHBOARD_CACHE_TTL", "soon"},
		{"expiry interval", "TARIFF_EXPIRY_INTERVAL", "hourly"},
		{"price threshold", "TARIFF_ALERTS_PRICE_INCREASE_PCT", "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			t.Setenv("TARIFF_ADMIN_AUTH_DISABLED", "true")
			t.Setenv(tt.envVar, tt.value)

			if _, err := LoadServerConfigWithViper(viper.New()); err == nil {
				t.Errorf("Expected error for %s=%s", tt.envVar, tt.value)
			}
		})
	}
}

// clearEnvVars unsets every variable the server loader binds
func clearEnvVars() {
	vars := []string{
		"TARIFF_SERVER_PORT", "TARIFF_SERVER_HOST", "TARIFF_DATABASE_PATH",
		"TARIFF_LOGGING_LEVEL", "TARIFF_DASHBOARD_TOP_N", "TARIFF_DASHBOARD_MONTHS",
		"TARIFF_DASHBOARD_CACHE_TTL", "TARIFF_DASHBOARD_CACHE_DISABLED", "TARIFF_DASHBOARD_CACHE_REDIS_URL",
		"TARIFF_DASHBOARD_REFRESH_INTERVAL", "TARIFF_DASHBOARD_DISABLE_RATE_LIMIT",
		"TARIFF_ALERTS_EXPIRING_DAYS", "TARIFF_ALERTS_PRICE_INCREASE_PCT",
		"TARIFF_EXPIRY_ENABLED", "TARIFF_EXPIRY_INTERVAL",
		"TARIFF_ADMIN_API_KEY", "TARIFF_ADMIN_AUTH_DISABLED",
	}
	for _, key := range vars {
		os.Unsetenv(key)
	}
}
