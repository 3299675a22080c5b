package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/store"
	"github.com/andrewkristofer/SmartBox-IoT/internal/visibility"
)

// DevicesHandler 跟踪设备列表 Handler
type DevicesHandler struct {
	sessions *store.SessionStore
	resolver *visibility.Resolver
	logger   *zap.Logger
}

// NewDevicesHandler 创建 Handler
func NewDevicesHandler(sessions *store.SessionStore, resolver *visibility.Resolver, logger *zap.Logger) *DevicesHandler {
	return &DevicesHandler{
		sessions: sessions,
		resolver: resolver,
		logger:   logger,
	}
}

// Collection GET 列表 / POST 添加 / DELETE 清空
// /api/v1/devices
func (h *DevicesHandler) Collection(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		ids, err := h.sessions.TrackedDevices(r.Context(), identity.Username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": ids})

	case http.MethodPost:
		h.add(w, r)

	case http.MethodDelete:
		if err := h.sessions.ClearTrackedDevices(r.Context(), identity.Username); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": []string{}})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Item DELETE /api/v1/devices/{boxID}
func (h *DevicesHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	boxID := pathSuffix(r.URL.Path, "/api/v1/devices/")
	if boxID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	ids, err := h.sessions.RemoveTrackedDevice(r.Context(), identity.Username, boxID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": ids})
}

// add 添加设备前先过可见性裁决；拒绝是同步的、显式的，且不产生半截状态
func (h *DevicesHandler) add(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req struct {
		BoxID string `json:"box_id"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.BoxID = strings.TrimSpace(req.BoxID)
	if req.BoxID == "" {
		writeError(w, http.StatusBadRequest, "box_id is required")
		return
	}

	if err := h.resolver.Authorize(identity, req.BoxID); err != nil {
		if errors.Is(err, visibility.ErrAccessDenied) {
			h.logger.Info("Device add denied",
				zap.String("username", identity.Username),
				zap.String("box_id", req.BoxID),
			)
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ids, err := h.sessions.AddTrackedDevice(r.Context(), identity.Username, req.BoxID)
	if err != nil {
		// 重复添加按用户可见的冲突处理
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": ids})
}
