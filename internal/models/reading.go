package models

import "encoding/json"

// Reading 一条 Smart Box 遥测记录（对应后端 smartbox_data 表的一行）
// temperature/humidity/latitude/longitude 允许为 null（设备可能只上报部分传感器）
type Reading struct {
	ID          int64    `json:"id,omitempty"`
	BoxID       string   `json:"box_id"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Timestamp   string   `json:"timestamp"` // 后端时钟，SQLite DATETIME 文本；空串视为无时间戳
}

// HasTimestamp 是否带有效时间戳
func (r *Reading) HasTimestamp() bool {
	return r.Timestamp != ""
}

// HasVitals 温湿度是否都是有效数值
func (r *Reading) HasVitals() bool {
	return r.Temperature != nil && r.Humidity != nil
}

// UnmarshalJSON 容忍后端把数值字段编码成字符串（如 "n/a"）的历史数据：
// 无法解析为数字的字段按缺失处理，而不是让整条记录失败
func (r *Reading) UnmarshalJSON(data []byte) error {
	type raw struct {
		ID          int64           `json:"id"`
		BoxID       string          `json:"box_id"`
		Temperature json.RawMessage `json:"temperature"`
		Humidity    json.RawMessage `json:"humidity"`
		Latitude    json.RawMessage `json:"latitude"`
		Longitude   json.RawMessage `json:"longitude"`
		Timestamp   string          `json:"timestamp"`
	}

	var rr raw
	if err := json.Unmarshal(data, &rr); err != nil {
		return err
	}

	r.ID = rr.ID
	r.BoxID = rr.BoxID
	r.Timestamp = rr.Timestamp
	r.Temperature = parseOptionalFloat(rr.Temperature)
	r.Humidity = parseOptionalFloat(rr.Humidity)
	r.Latitude = parseOptionalFloat(rr.Latitude)
	r.Longitude = parseOptionalFloat(rr.Longitude)
	return nil
}

func parseOptionalFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		// "n/a" 等非数值负载 → 缺失
		return nil
	}
	return &f
}

// Float64Ptr 测试和构造代码的便捷函数
func Float64Ptr(v float64) *float64 {
	return &v
}
