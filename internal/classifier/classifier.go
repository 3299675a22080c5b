// Package classifier 把单条遥测记录映射到安全状态分类。
// 纯函数，无副作用；阈值规则必须和仪表盘表格展示完全一致。
package classifier

import "github.com/andrewkristofer/SmartBox-IoT/internal/models"

// Thresholds 安全区间（闭区间，边界值算安全）
type Thresholds struct {
	TempMin     float64
	TempMax     float64
	HumidityMin float64
	HumidityMax float64
}

// DefaultThresholds 标准冷链安全区间：2-8°C 链路上 Smart Box 的实际规则是 1-4°C、40-60%RH。
// 历史上通知监控用过更宽的 20-60% 湿度带（LegacyNotifierThresholds）；
// 两处规则不一致，统一后以这里为准，旧带宽仅保留为可配置项。
var DefaultThresholds = Thresholds{
	TempMin:     1.0,
	TempMax:     4.0,
	HumidityMin: 40.0,
	HumidityMax: 60.0,
}

// LegacyNotifierThresholds 旧通知监控使用的宽湿度带。仅供配置显式选择，不作为默认值。
var LegacyNotifierThresholds = Thresholds{
	TempMin:     1.0,
	TempMax:     4.0,
	HumidityMin: 20.0,
	HumidityMax: 60.0,
}

// Classify 把一条记录（或缺失）映射到状态分类：
//  1. 完全没有记录 → Offline
//  2. 有记录但无时间戳 → NoData
//  3. 温度或湿度不是有效数值 → Unknown（不报 Danger，避免坏负载误报）
//  4. 温湿度都在区间内 → Safe，否则 Danger
func Classify(r *models.Reading, t Thresholds) models.Status {
	if r == nil {
		return models.StatusOffline
	}
	if !r.HasTimestamp() {
		return models.StatusNoData
	}
	if !r.HasVitals() {
		return models.StatusUnknown
	}

	tempSafe := *r.Temperature >= t.TempMin && *r.Temperature <= t.TempMax
	humidSafe := *r.Humidity >= t.HumidityMin && *r.Humidity <= t.HumidityMax

	if tempSafe && humidSafe {
		return models.StatusSafe
	}
	return models.StatusDanger
}
