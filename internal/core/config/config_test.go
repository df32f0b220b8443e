package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://shop.test/api")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 10*time.Second, cfg.Storefront.Timeout())
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 168*time.Hour, cfg.Redis.SessionTTL())
	assert.Equal(t, 5*time.Second, cfg.Payments.PollInterval())
	assert.Equal(t, 60, cfg.Payments.PollMaxAttempts)
	assert.Equal(t, 1, cfg.Payments.ConfirmRetries)
	assert.True(t, cfg.Payments.WidgetEnabled)
	assert.Equal(t, time.Hour, cfg.Payments.StatusTTL())
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com")
	t.Setenv("PAYMENT_POLL_INTERVAL_SECONDS", "2")
	t.Setenv("PAYMENT_WIDGET_ENABLED", "false")
	t.Setenv("PAYMENT_GATEWAY_KEY_ID", "rzp_test_key")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "https://shop.example.com", cfg.Storefront.URL)
	assert.Equal(t, 2*time.Second, cfg.Payments.PollInterval())
	assert.False(t, cfg.Payments.WidgetEnabled)
	assert.Equal(t, "rzp_test_key", cfg.Payments.GatewayKeyID)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	os.Unsetenv("STOREFRONT_API_URL")
	dir := t.TempDir()
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
STOREFRONT_API_URL=https://staging.shop.test
REDIS_URL=redis://cache:6379/2
PAYMENT_POLL_MAX_ATTEMPTS=12
`)
	require.NoError(t, os.WriteFile(dir+"/.env", content, 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "https://staging.shop.test", cfg.Storefront.URL)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
	assert.Equal(t, 12, cfg.Payments.PollMaxAttempts)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	os.Unsetenv("STOREFRONT_API_URL")

	cfg, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration: STOREFRONT_API_URL")
}

// TestLoad_InvalidPolling verifies that a non-positive poll interval is rejected.
func TestLoad_InvalidPolling(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://shop.test")
	t.Setenv("PAYMENT_POLL_INTERVAL_SECONDS", "0")

	cfg, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid payment polling configuration")
}

// TestLoad_Proxy verifies that the egress proxy settings are loaded.
func TestLoad_Proxy(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://shop.test")
	t.Setenv("STOREFRONT_PROXY_ENABLED", "true")
	t.Setenv("STOREFRONT_PROXY_HOST", "egress.internal")
	t.Setenv("STOREFRONT_PROXY_PORT", "3128")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Storefront.Proxy.HasProxy())
	assert.Equal(t, "http://egress.internal:3128", cfg.Storefront.Proxy.HostPort())
}
