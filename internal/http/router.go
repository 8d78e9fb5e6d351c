package httpapi

import (
	"net/http"

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

// HandleHandler 支持 http.Handler 接口（用于中间件包装过的子路由）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// requireMethod 限制路由只接受单一 HTTP 方法
func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// NewAPIHandler 组装完整路由
// /health 和 /ws 免认证（探针和浏览器 websocket），/api/* 走 basic auth
func NewAPIHandler(h *MonitorHandler, username, password string, logger *zap.Logger) http.Handler {
	api := NewRouter(logger)
	api.Handle("/api/status", requireMethod(http.MethodGet, h.Status))
	api.Handle("/api/title", requireMethod(http.MethodGet, h.Title))
	api.Handle("/api/debug", requireMethod(http.MethodGet, h.Debug))
	api.Handle("/api/file-counts", requireMethod(http.MethodGet, h.FileCounts))
	api.Handle("/api/pi-status", requireMethod(http.MethodGet, h.PiStatus))
	api.Handle("/api/pi-statistics", requireMethod(http.MethodGet, h.PiStatistics))
	api.Handle("/api/pi-monitor", requireMethod(http.MethodGet, h.PiMonitor))
	api.Handle("/api/success-rates", requireMethod(http.MethodGet, h.SuccessRates))
	api.Handle("/api/processing-status", requireMethod(http.MethodGet, h.ProcessingStatus))
	api.Handle("/api/monitoring/", requireMethod(http.MethodPost, h.SetMonitoring))

	root := NewRouter(logger)
	root.Handle("/health", requireMethod(http.MethodGet, h.Health))
	root.Handle("/ws", h.ServeWS)
	root.HandleHandler("/api/", BasicAuth(username, password, logger, api))
	return root
}
