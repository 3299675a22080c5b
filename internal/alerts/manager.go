// Package alerts 报警生命周期管理。
// 每台设备一个 {NoAlert, AlertActive} 状态机，由每轮车队快照驱动：
// 进入 Danger 创建一条持久报警，离开 Danger 或用户手动关闭则撤销；
// Danger 持续期间不重复创建（不重复响铃）。
package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// Manager 报警状态管理器。单写者：只被轮询回调和 HTTP 层的手动操作驱动
type Manager struct {
	logger *zap.Logger

	mu     sync.Mutex
	active map[string]*models.AlertState // box_id → 活跃报警（每台最多一条）
	now    func() time.Time
}

// NewManager 创建管理器，所有设备初始为 NoAlert
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		active: make(map[string]*models.AlertState),
		now:    time.Now,
	}
}

// Tick 用一轮快照驱动所有设备的状态机，返回本轮产生的创建/撤销事件。
// 必须遍历快照覆盖的全部设备：上一轮失败的设备本轮照常评估，不跳过
func (m *Manager) Tick(snapshot *models.FleetSnapshot) []models.AlertEvent {
	if snapshot == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var events []models.AlertEvent
	for boxID, state := range snapshot.Devices {
		switch {
		case state.Status == models.StatusDanger:
			if _, exists := m.active[boxID]; exists {
				// AlertActive → AlertActive: no-op，不重复报警
				continue
			}
			alert := &models.AlertState{
				BoxID:     boxID,
				AlertID:   uuid.New().String(),
				CreatedAt: m.now(),
				Reading:   state.Reading,
			}
			m.active[boxID] = alert
			events = append(events, models.AlertEvent{
				Action:  models.AlertCreated,
				BoxID:   boxID,
				AlertID: alert.AlertID,
				At:      alert.CreatedAt,
				Reading: state.Reading,
			})
			m.logger.Info("Danger alert created",
				zap.String("box_id", boxID),
				zap.String("alert_id", alert.AlertID),
			)

		default:
			// Safe/Unknown/Offline/NoData 都撤销活跃报警；
			// Unknown/Offline 不算 alarm-worthy，坏负载不误报
			if alert, exists := m.active[boxID]; exists {
				delete(m.active, boxID)
				events = append(events, models.AlertEvent{
					Action:  models.AlertRetracted,
					BoxID:   boxID,
					AlertID: alert.AlertID,
					At:      m.now(),
				})
				m.logger.Info("Alert retracted, device no longer in danger",
					zap.String("box_id", boxID),
					zap.String("alert_id", alert.AlertID),
					zap.String("status", string(state.Status)),
				)
			}
		}
	}
	return events
}

// Dismiss 用户手动关闭一条活跃报警。当前语义：立即重新武装——
// 下一轮若仍观察到 Danger 会创建全新报警（和旧版监控行为一致）。
// TODO: 可选的关闭冷却（出现 Safe 读数前不再报警），作为配置开关
func (m *Manager) Dismiss(boxID string) (models.AlertEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, exists := m.active[boxID]
	if !exists {
		return models.AlertEvent{}, false
	}
	delete(m.active, boxID)

	ev := models.AlertEvent{
		Action:  models.AlertRetracted,
		BoxID:   boxID,
		AlertID: alert.AlertID,
		At:      m.now(),
	}
	m.logger.Info("Alert dismissed by user",
		zap.String("box_id", boxID),
		zap.String("alert_id", alert.AlertID),
	)
	return ev, true
}

// Reset 登出时全量清空。不逐条发撤销事件：通知面本身也被拆除了
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.active) > 0 {
		m.logger.Info("Alert state cleared",
			zap.Int("active_alerts", len(m.active)),
		)
	}
	m.active = make(map[string]*models.AlertState)
}

// Active 当前所有活跃报警的拷贝
func (m *Manager) Active() []models.AlertState {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.AlertState, 0, len(m.active))
	for _, alert := range m.active {
		out = append(out, *alert)
	}
	return out
}
