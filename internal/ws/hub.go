package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/models"
)

// Hub 维护活跃的 websocket 客户端集合并向它们广播消息
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Run 退出后关闭，解除未消费的注册/注销发送
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewHub 创建广播中心
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run 处理注册/注销/广播事件，直到 ctx 取消
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Websocket client registered",
				zap.String("client_id", client.id),
				zap.Int("client_count", h.ClientCount()),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Websocket client unregistered",
				zap.String("client_id", client.id),
			)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 发送缓冲满：认为客户端已卡死，直接移除
					h.logger.Warn("Websocket client send buffer full, removing",
						zap.String("client_id", client.id),
					)
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// RegisterClient 注册新客户端；Run 已退出时直接丢弃
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// UnregisterClient 注销客户端；Run 已退出时连接已被关闭，直接返回
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount 当前活跃客户端数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 向所有客户端广播一条类型化消息
func (h *Hub) Broadcast(msgType string, data interface{}) {
	msg := models.BroadcastMessage{
		ID:        uuid.NewString(),
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message",
			zap.String("type", msgType),
			zap.Error(err),
		)
		return
	}
	select {
	case h.broadcast <- raw:
	case <-h.done:
	}
}
