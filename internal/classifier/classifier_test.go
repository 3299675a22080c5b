package classifier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

func reading(temp, humidity float64) *models.Reading {
	return &models.Reading{
		BoxID:       "SMARTBOX-001",
		Temperature: models.Float64Ptr(temp),
		Humidity:    models.Float64Ptr(humidity),
		Timestamp:   "2025-10-01 08:00:00",
	}
}

func TestClassify_SafeBand(t *testing.T) {
	cases := []struct {
		name           string
		temp, humidity float64
	}{
		{"mid band", 2.5, 50.0},
		{"temp lower boundary", 1.0, 50.0},
		{"temp upper boundary", 4.0, 50.0},
		{"humidity lower boundary", 2.5, 40.0},
		{"humidity upper boundary", 2.5, 60.0},
		{"all boundaries", 1.0, 60.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, models.StatusSafe, Classify(reading(tc.temp, tc.humidity), DefaultThresholds))
		})
	}
}

func TestClassify_DangerJustOutsideBand(t *testing.T) {
	cases := []struct {
		name           string
		temp, humidity float64
	}{
		{"temp just above", 4.01, 50.0},
		{"temp below", 0.5, 50.0},
		{"humidity just below", 2.5, 39.99},
		{"humidity above", 2.5, 80.0},
		{"both out", 12.0, 95.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, models.StatusDanger, Classify(reading(tc.temp, tc.humidity), DefaultThresholds))
		})
	}
}

func TestClassify_AbsentReading(t *testing.T) {
	assert.Equal(t, models.StatusOffline, Classify(nil, DefaultThresholds))
}

func TestClassify_NoTimestamp(t *testing.T) {
	r := reading(2.5, 50.0)
	r.Timestamp = ""
	assert.Equal(t, models.StatusNoData, Classify(r, DefaultThresholds))
}

func TestClassify_NonNumericVitals(t *testing.T) {
	// 后端历史数据里温度可能是 "n/a" 字符串；解码后按缺失处理 → Unknown，绝不 Danger
	var r models.Reading
	err := json.Unmarshal([]byte(`{"box_id":"SMARTBOX-001","temperature":"n/a","humidity":55.0,"timestamp":"2025-10-01 08:00:00"}`), &r)
	require.NoError(t, err)

	assert.Equal(t, models.StatusUnknown, Classify(&r, DefaultThresholds))
}

func TestClassify_NullVitals(t *testing.T) {
	r := reading(2.5, 50.0)
	r.Humidity = nil
	assert.Equal(t, models.StatusUnknown, Classify(r, DefaultThresholds))
}

func TestClassify_LegacyNotifierBand(t *testing.T) {
	// 旧通知监控带宽：湿度 20-60 算安全
	r := reading(2.5, 25.0)
	assert.Equal(t, models.StatusDanger, Classify(r, DefaultThresholds))
	assert.Equal(t, models.StatusSafe, Classify(r, LegacyNotifierThresholds))
}

func TestClassify_Deterministic(t *testing.T) {
	r := reading(3.0, 45.0)
	first := Classify(r, DefaultThresholds)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(r, DefaultThresholds))
	}
}
