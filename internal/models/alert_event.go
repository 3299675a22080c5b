package models

import "time"

// AlertAction 报警生命周期事件类型
type AlertAction string

const (
	AlertCreated   AlertAction = "created"
	AlertRetracted AlertAction = "retracted"
)

// AlertState 一台设备当前活跃的报警（每台设备最多一条）
type AlertState struct {
	BoxID     string    `json:"box_id"`
	AlertID   string    `json:"alert_id"` // 不透明句柄，撤销/手动关闭时引用
	CreatedAt time.Time `json:"created_at"`
	Reading   *Reading  `json:"reading,omitempty"` // 触发报警的那条记录
}

// AlertEvent 一次状态迁移产生的副作用（创建或撤销一条报警）
type AlertEvent struct {
	Action  AlertAction `json:"action"`
	BoxID   string      `json:"box_id"`
	AlertID string      `json:"alert_id"`
	At      time.Time   `json:"at"`
	Reading *Reading    `json:"reading,omitempty"` // created 事件携带触发记录
}
