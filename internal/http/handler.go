package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/engine"
	"github.com/anthon-walters/Web-logmonitor/internal/service"
)

// MonitorHandler 操作员面板的 REST 接口
type MonitorHandler struct {
	svc    *service.MonitorService
	title  string
	logger *zap.Logger
}

// NewMonitorHandler 创建 REST 接口处理器
func NewMonitorHandler(svc *service.MonitorService, title string, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{
		svc:    svc,
		title:  title,
		logger: logger,
	}
}

// Health 存活探针（免认证，供容器编排使用）
func (h *MonitorHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// statusResponse /api/status 响应体
type statusResponse struct {
	Status         string `json:"status"`
	ShareConnected bool   `json:"share_connected"`
	WSClients      int    `json:"ws_clients"`
	UptimeSeconds  int    `json:"uptime_seconds"`
}

// Status 服务自身的运行状态
func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:         "ok",
		ShareConnected: h.svc.ShareConnected(),
		WSClients:      h.svc.Hub().ClientCount(),
		UptimeSeconds:  int(h.svc.Uptime().Seconds()),
	})
}

// Title 面板标题
func (h *MonitorHandler) Title(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"title": h.title})
}

// Debug 内部状态汇总（排障用）
func (h *MonitorHandler) Debug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.DebugInfo())
}

// FileCounts 网络共享上的按设备文件计数
func (h *MonitorHandler) FileCounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.FileCounts())
}

// PiStatus 设备在线状态
func (h *MonitorHandler) PiStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.OnlineStatus())
}

// PiStatistics 按设备的 sent/tagged/bibs 统计
func (h *MonitorHandler) PiStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Statistics())
}

// PiMonitor 设备自报身份与 processed/uploaded 计数
func (h *MonitorHandler) PiMonitor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.MonitorRows())
}

// SuccessRates 全局成功率
func (h *MonitorHandler) SuccessRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.SuccessRates())
}

// ProcessingStatus 按设备的处理状态（含闪烁相位）
func (h *MonitorHandler) ProcessingStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ProcessingStatus())
}

// monitoringRequest POST /api/monitoring/{device} 请求体（state 查询参数的替代）
type monitoringRequest struct {
	Monitored *bool `json:"monitored"`
}

// SetMonitoring 切换单设备监控开关
// 开关状态来自 state 查询参数（true/false），或请求体 {"monitored": bool}
func (h *MonitorHandler) SetMonitoring(w http.ResponseWriter, r *http.Request) {
	device := strings.TrimPrefix(r.URL.Path, "/api/monitoring/")
	if device == "" || strings.Contains(device, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var monitored bool
	switch state := r.URL.Query().Get("state"); state {
	case "true":
		monitored = true
	case "false":
		monitored = false
	case "":
		var req monitoringRequest
		if err := readBodyJSON(r, 1<<10, &req); err != nil || req.Monitored == nil {
			writeError(w, http.StatusBadRequest, "missing state parameter or monitored field")
			return
		}
		monitored = *req.Monitored
	default:
		writeError(w, http.StatusBadRequest, "state must be true or false")
		return
	}

	if err := h.svc.SetMonitoring(r.Context(), device, monitored); err != nil {
		if errors.Is(err, engine.ErrUnknownDevice) {
			writeError(w, http.StatusNotFound, "unknown device")
			return
		}
		h.logger.Error("Failed to update monitoring setting",
			zap.String("device", device),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to update monitoring setting")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"device":    device,
		"monitored": monitored,
	})
}
