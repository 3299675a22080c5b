package service

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/classifier"
	"github.com/andrewkristofer/SmartBox-IoT/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Backend.BaseURL = "http://localhost:5000"
	cfg.Redis.Addr = mr.Addr()
	cfg.Monitor.FleetIDs = []string{"SMARTBOX-001"}
	cfg.Monitor.ThresholdBand = "standard"
	return cfg
}

func TestNewMonitorService(t *testing.T) {
	cfg := testConfig(t)

	s, err := NewMonitorService(cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Stop()

	assert.NotNil(t, s.Telemetry())
	assert.NotNil(t, s.Poller())
	assert.NotNil(t, s.Alerts())
	assert.NotNil(t, s.Sessions())
	assert.NotNil(t, s.Visibility())
	assert.Equal(t, classifier.DefaultThresholds, s.Thresholds())
}

func TestNewMonitorService_LegacyBand(t *testing.T) {
	cfg := testConfig(t)
	cfg.Monitor.ThresholdBand = "legacy-notifier"

	s, err := NewMonitorService(cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Stop()

	assert.Equal(t, classifier.LegacyNotifierThresholds, s.Thresholds())
}

func TestNewMonitorService_UnknownBand(t *testing.T) {
	cfg := testConfig(t)
	cfg.Monitor.ThresholdBand = "whatever"

	_, err := NewMonitorService(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown threshold band")
}

func TestNewMonitorService_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := NewMonitorService(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
