package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes 注册监控服务的全部路由
func (r *Router) RegisterRoutes(auth *AuthHandler, fleet *FleetHandler, devices *DevicesHandler, al *AlertsHandler, exp *ExportHandler) {
	r.Handle("/api/v1/auth/login", methodOnly(http.MethodPost, auth.Login))
	r.Handle("/api/v1/auth/logout", methodOnly(http.MethodPost, auth.RequireAuth(auth.Logout)))

	r.Handle("/api/v1/fleet/status", methodOnly(http.MethodGet, auth.RequireAuth(fleet.Status)))
	r.Handle("/api/v1/fleet/live", methodOnly(http.MethodGet, auth.RequireAuth(fleet.Live)))
	r.Handle("/api/v1/admin/devices", methodOnly(http.MethodGet, auth.RequireAuth(fleet.AdminDevices)))

	// tracked devices: GET 列表 / POST 添加 / DELETE 清空
	r.Handle("/api/v1/devices", auth.RequireAuth(devices.Collection))
	// DELETE /api/v1/devices/{boxID}
	r.Handle("/api/v1/devices/", auth.RequireAuth(devices.Item))

	r.Handle("/api/v1/alerts", methodOnly(http.MethodGet, auth.RequireAuth(al.List)))
	// POST /api/v1/alerts/{boxID}/dismiss
	r.Handle("/api/v1/alerts/", auth.RequireAuth(al.Item))

	// GET /api/v1/export/{boxID}?format=csv|xlsx&limit=n
	r.Handle("/api/v1/export/", methodOnly(http.MethodGet, auth.RequireAuth(exp.Export)))
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// pathSuffix 取 prefix 之后的路径段；包含子路径或为空时返回 ""
func pathSuffix(path, prefix string) string {
	s := strings.TrimPrefix(path, prefix)
	if s == "" || strings.Contains(s, "/") {
		return ""
	}
	return s
}
