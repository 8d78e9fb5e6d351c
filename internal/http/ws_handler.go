package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/models"
	"github.com/anthon-walters/Web-logmonitor/internal/ws"
)

// upgrader 面板与服务同机部署，不做 Origin 校验
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS websocket 接入点
// 升级成功后先回放缓存中最近一次广播快照，再注册进广播中心
func (h *MonitorHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket connection",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	client := ws.NewClient(h.svc.Hub(), conn, h.logger)

	// 回放的消息形状必须与周期性 processing_status 广播一致，
	// 客户端按 type 分发时才不用区分首条消息
	if status, err := h.svc.CachedProcessingStatus(r.Context()); err == nil {
		msg := models.BroadcastMessage{
			ID:        uuid.NewString(),
			Type:      "processing_status",
			Data:      status,
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if raw, err := json.Marshal(msg); err == nil {
			client.Enqueue(raw)
		}
	}

	h.svc.Hub().RegisterClient(client)
	go client.WritePump()
	go client.ReadPump()
}
