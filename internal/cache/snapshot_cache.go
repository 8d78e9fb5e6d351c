package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/engine"
)

// snapshotKey 最新状态快照的缓存键
const snapshotKey = "logmonitor:status:snapshot"

// snapshotTTL 快照过期时间：广播停摆后旧快照自动消失
const snapshotTTL = 30 * time.Second

// CachedSnapshot 缓存的聚合快照
type CachedSnapshot struct {
	Statuses  map[string]engine.StatusSnapshot `json:"statuses"`
	Online    map[string]bool                  `json:"online"`
	Timestamp time.Time                        `json:"timestamp"`
}

// SnapshotCache Redis 快照缓存
// 每个广播周期写入一次，供独立部署的前端后端和新接入的 websocket
// 客户端读取最近一次的聚合状态
type SnapshotCache struct {
	kv     KVStore
	logger *zap.Logger
}

// NewSnapshotCache 创建快照缓存
func NewSnapshotCache(kv KVStore, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		kv:     kv,
		logger: logger,
	}
}

// Update 写入最新快照
func (c *SnapshotCache) Update(ctx context.Context, snapshot *CachedSnapshot) error {
	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.kv.Set(ctx, snapshotKey, string(jsonData), snapshotTTL); err != nil {
		return fmt.Errorf("failed to set snapshot cache: %w", err)
	}

	c.logger.Debug("Updated status snapshot cache",
		zap.String("key", snapshotKey),
		zap.Int("device_count", len(snapshot.Statuses)),
	)
	return nil
}

// Latest 读取最近一次快照；没有或已过期返回 ErrCacheMiss
func (c *SnapshotCache) Latest(ctx context.Context) (*CachedSnapshot, error) {
	raw, err := c.kv.Get(ctx, snapshotKey)
	if err != nil {
		return nil, err
	}

	var snapshot CachedSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}
