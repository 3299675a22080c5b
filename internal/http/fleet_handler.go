package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
	"github.com/andrewkristofer/SmartBox-IoT/internal/poller"
	"github.com/andrewkristofer/SmartBox-IoT/internal/store"
	"github.com/andrewkristofer/SmartBox-IoT/internal/telemetry"
)

// adminFallbackIDs 后端设备注册表不可达时超级管理员视图的兜底列表（与旧版仪表盘一致）
var adminFallbackIDs = []string{
	"SMARTBOX-001", "SMARTBOX-002", "SMARTBOX-003",
	"SMARTBOX-004", "SMARTBOX-005", "SMARTBOX-006",
}

// FleetHandler 车队状态 Handler
type FleetHandler struct {
	backend     *telemetry.Client
	fleetPoller *poller.FleetPoller
	sessions    *store.SessionStore
	logger      *zap.Logger
}

// NewFleetHandler 创建车队 Handler
func NewFleetHandler(backend *telemetry.Client, fleetPoller *poller.FleetPoller, sessions *store.SessionStore, logger *zap.Logger) *FleetHandler {
	return &FleetHandler{
		backend:     backend,
		fleetPoller: fleetPoller,
		sessions:    sessions,
		logger:      logger,
	}
}

// Status 当前身份可见车队的即时状态（发起一轮一次性轮询）
// GET /api/v1/fleet/status
// 超级管理员：后端注册表 ∪ 本地跟踪列表；普通账号：只有本地跟踪列表
func (h *FleetHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	boxIDs, err := h.visibleFleet(r, identity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	snapshot := h.fleetPoller.Poll(r.Context(), boxIDs)
	writeJSON(w, http.StatusOK, snapshot)
}

// Live 后台监控最近一轮提交的快照（固定车队）
// GET /api/v1/fleet/live
func (h *FleetHandler) Live(w http.ResponseWriter, r *http.Request) {
	snapshot := h.fleetPoller.Latest()
	if snapshot == nil {
		// 服务刚启动，第一轮还没完成
		writeJSON(w, http.StatusOK, models.NewFleetSnapshot(0))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// AdminDevices 后端权威设备注册表，仅超级管理员可见
// GET /api/v1/admin/devices
func (h *FleetHandler) AdminDevices(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	if !identity.IsSuperAdmin() {
		writeError(w, http.StatusForbidden, "super_admin role required")
		return
	}

	ids, err := h.backend.ListDevices(r.Context())
	if err != nil {
		// 注册表不可达时给兜底列表，保持管理视图可用
		h.logger.Warn("Device registry unreachable, serving fallback list",
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, adminFallbackIDs)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *FleetHandler) visibleFleet(r *http.Request, identity models.Identity) ([]string, error) {
	tracked, err := h.sessions.TrackedDevices(r.Context(), identity.Username)
	if err != nil {
		return nil, err
	}
	if !identity.IsSuperAdmin() {
		return tracked, nil
	}

	registry, err := h.backend.ListDevices(r.Context())
	if err != nil {
		h.logger.Warn("Device registry unreachable for admin status view",
			zap.Error(err),
		)
		registry = adminFallbackIDs
	}

	// 注册表 ∪ 跟踪列表，保序去重
	seen := make(map[string]bool, len(registry)+len(tracked))
	var out []string
	for _, id := range append(append([]string{}, registry...), tracked...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
