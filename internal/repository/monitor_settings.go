package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MonitorSettingsRepository 设备监控开关存储
// 表结构：
//
//	CREATE TABLE device_monitor_settings (
//	    device_id  TEXT PRIMARY KEY,
//	    monitored  BOOLEAN NOT NULL DEFAULT TRUE,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
// 表中没有记录的设备默认受监控
type MonitorSettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMonitorSettingsRepository 创建监控开关存储
func NewMonitorSettingsRepository(db *sql.DB, logger *zap.Logger) *MonitorSettingsRepository {
	return &MonitorSettingsRepository{
		db:     db,
		logger: logger,
	}
}

// GetAll 获取全部设备的监控开关快照
func (r *MonitorSettingsRepository) GetAll(ctx context.Context) (map[string]bool, error) {
	query := `
		SELECT device_id, monitored
		FROM device_monitor_settings
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query monitor settings: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var deviceID string
		var monitored bool
		if err := rows.Scan(&deviceID, &monitored); err != nil {
			return nil, fmt.Errorf("failed to scan monitor setting: %w", err)
		}
		flags[deviceID] = monitored
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monitor settings: %w", err)
	}

	return flags, nil
}

// Set 设置单设备的监控开关（upsert）
func (r *MonitorSettingsRepository) Set(ctx context.Context, deviceID string, monitored bool) error {
	query := `
		INSERT INTO device_monitor_settings (device_id, monitored, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id)
		DO UPDATE SET monitored = EXCLUDED.monitored, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, deviceID, monitored, time.Now()); err != nil {
		return fmt.Errorf("failed to set monitor setting for %s: %w", deviceID, err)
	}

	r.logger.Info("Updated device monitor setting",
		zap.String("device", deviceID),
		zap.Bool("monitored", monitored),
	)
	return nil
}
