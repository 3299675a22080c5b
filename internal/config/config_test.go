package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "http://localhost:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, []string{"SMARTBOX-001", "SMARTBOX-002", "SMARTBOX-003"}, cfg.Monitor.FleetIDs)
	assert.Equal(t, 5*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, "standard", cfg.Monitor.ThresholdBand)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "smartbox/kelompok11/alerts", cfg.Alerts.MQTT.Topic)

	assert.Equal(t, []string{"SMARTBOX-001"}, cfg.AccessRules["mitra_padang"])
	assert.Equal(t, []string{"SMARTBOX-002", "SMARTBOX-003"}, cfg.AccessRules["mitra_gudang"])

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("BACKEND_BASE_URL", "http://backend:5000")
	os.Setenv("BACKEND_SERVICE_TOKEN", "svc-token")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("POLL_INTERVAL", "30s")
	os.Setenv("THRESHOLD_BAND", "legacy-notifier")
	os.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:5000", cfg.Backend.BaseURL)
	assert.Equal(t, "svc-token", cfg.Backend.ServiceToken)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, "legacy-notifier", cfg.Monitor.ThresholdBand)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_YAMLFile(t *testing.T) {
	os.Clearenv()

	yamlContent := `
backend:
  base_url: http://yaml-backend:5000
monitor:
  fleet_ids: ["SMARTBOX-010", "SMARTBOX-011"]
access_rules:
  mitra_medan: ["SMARTBOX-010"]
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))
	os.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://yaml-backend:5000", cfg.Backend.BaseURL)
	assert.Equal(t, []string{"SMARTBOX-010", "SMARTBOX-011"}, cfg.Monitor.FleetIDs)
	assert.Equal(t, []string{"SMARTBOX-010"}, cfg.AccessRules["mitra_medan"])
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	os.Clearenv()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  base_url: http://yaml-backend:5000\n"), 0o600))
	os.Setenv("CONFIG_FILE", path)
	os.Setenv("BACKEND_BASE_URL", "http://env-backend:5000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env-backend:5000", cfg.Backend.BaseURL)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	os.Clearenv()
	os.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")

	_, err := Load()
	assert.Error(t, err)
}
