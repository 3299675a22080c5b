package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/alerts"
)

// AlertsHandler 活跃报警查询与手动关闭
type AlertsHandler struct {
	manager *alerts.Manager
	logger  *zap.Logger
}

// NewAlertsHandler 创建 Handler
func NewAlertsHandler(manager *alerts.Manager, logger *zap.Logger) *AlertsHandler {
	return &AlertsHandler{manager: manager, logger: logger}
}

// List 当前活跃报警
// GET /api/v1/alerts
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"alerts": h.manager.Active()})
}

// Item POST /api/v1/alerts/{boxID}/dismiss
func (h *AlertsHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	boxID, ok := strings.CutSuffix(rest, "/dismiss")
	if !ok || boxID == "" || strings.Contains(boxID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	event, dismissed := h.manager.Dismiss(boxID)
	if !dismissed {
		writeError(w, http.StatusNotFound, "no active alert for "+boxID)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
