package models

// Status 单台设备的安全状态分类
type Status string

const (
	// StatusSafe 温湿度都在安全区间内
	StatusSafe Status = "safe"
	// StatusDanger 温度或湿度越界
	StatusDanger Status = "danger"
	// StatusUnknown 有记录但温湿度不是有效数值
	StatusUnknown Status = "unknown"
	// StatusOffline 本轮完全取不到该设备的数据（请求失败或从未上报）
	StatusOffline Status = "offline"
	// StatusNoData 有记录但没有时间戳
	StatusNoData Status = "no_data"
)

// DeviceState 一台设备在一轮快照中的状态
type DeviceState struct {
	BoxID   string   `json:"box_id"`
	Status  Status   `json:"status"`
	Reading *Reading `json:"reading,omitempty"` // nil 表示本轮无数据
}

// FleetSnapshot 一轮轮询的全量结果：覆盖本轮配置的所有设备 ID，整体替换，不做增量合并
type FleetSnapshot struct {
	Devices map[string]DeviceState `json:"devices"`
	// CycleSeq 轮询周期序号，从 1 开始单调递增；只增不回退，用于丢弃过期周期
	CycleSeq uint64 `json:"cycle_seq"`
}

// NewFleetSnapshot 创建空快照
func NewFleetSnapshot(seq uint64) *FleetSnapshot {
	return &FleetSnapshot{
		Devices:  make(map[string]DeviceState),
		CycleSeq: seq,
	}
}

// StateOf 返回某设备的状态；不在快照里的设备视为 Offline
func (s *FleetSnapshot) StateOf(boxID string) DeviceState {
	if st, ok := s.Devices[boxID]; ok {
		return st
	}
	return DeviceState{BoxID: boxID, Status: StatusOffline}
}
