package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/alerts"
	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
	"github.com/andrewkristofer/SmartBox-IoT/internal/store"
	"github.com/andrewkristofer/SmartBox-IoT/internal/telemetry"
)

type identityContextKey struct{}

// IdentityFrom 从请求上下文取已认证身份
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(models.Identity)
	return identity, ok
}

// AuthHandler 认证 Handler：登录透传给后端换 token，会话存 Redis
type AuthHandler struct {
	backend      *telemetry.Client
	sessions     *store.SessionStore
	alertManager *alerts.Manager
	logger       *zap.Logger
}

// NewAuthHandler 创建认证 Handler
func NewAuthHandler(backend *telemetry.Client, sessions *store.SessionStore, alertManager *alerts.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		backend:      backend,
		sessions:     sessions,
		alertManager: alertManager,
		logger:       logger,
	}
}

// Login 用户登录
// POST /api/v1/auth/login {"username": ..., "password": ...}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.backend.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("Login rejected by backend",
			zap.String("username", req.Username),
			zap.Error(err),
		)
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	identity := models.Identity{
		Username: result.User.Username,
		Role:     result.User.Role,
		Token:    result.Token,
	}
	if identity.Username == "" {
		identity.Username = req.Username
	}

	if err := h.sessions.SaveIdentity(r.Context(), identity); err != nil {
		h.logger.Error("Failed to persist session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.logger.Info("User logged in",
		zap.String("username", identity.Username),
		zap.String("role", identity.Role),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": identity.Token,
		"user": map[string]string{
			"username": identity.Username,
			"role":     identity.Role,
		},
	})
}

// Logout 登出：会话、跟踪列表、报警状态一起清
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	if err := h.sessions.Logout(r.Context(), identity); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	h.alertManager.Reset()

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// RequireAuth Bearer token 会话中间件
func (h *AuthHandler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		identity, err := h.sessions.GetIdentity(r.Context(), token)
		if err != nil {
			if err == store.ErrNotFound {
				writeError(w, http.StatusUnauthorized, "session expired or unknown token")
				return
			}
			h.logger.Error("Session lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}
