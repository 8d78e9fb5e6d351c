package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/models"
)

// healthResponse /health 接口响应
type healthResponse struct {
	Status string `json:"status"`
}

// mainResponse 设备主接口响应（basic auth 保护）
type mainResponse struct {
	Identity      string `json:"identity"`
	TotalFiles    int    `json:"totalFiles"`
	UploadedFiles int    `json:"uploadedFiles"`
}

// HealthClient 现场设备健康/身份探测客户端
// 探测不到的设备按 offline 处理，不向调用方抛错：周期性重试就是重试机制
type HealthClient struct {
	httpClient *resty.Client
	port       int
	logger     *zap.Logger
}

// NewHealthClient 创建设备探测客户端
func NewHealthClient(port int, timeout time.Duration, username, password string, logger *zap.Logger) *HealthClient {
	client := resty.New().
		SetTimeout(timeout).
		SetBasicAuth(username, password).
		SetHeader("Accept", "application/json")

	return &HealthClient{
		httpClient: client,
		port:       port,
		logger:     logger,
	}
}

// CheckDevice 探测单台设备：先 /health，健康则再取主接口的身份和计数
// Identity 默认回落为设备 ID；主接口失败只影响计数，不影响在线判定
func (c *HealthClient) CheckDevice(ctx context.Context, device, address string) *models.DeviceHealth {
	health := &models.DeviceHealth{Identity: device}

	var hr healthResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&hr).
		Get(fmt.Sprintf("http://%s:%d/health", address, c.port))
	if err != nil {
		c.logger.Debug("Device health check failed",
			zap.String("device", device),
			zap.String("address", address),
			zap.Error(err),
		)
		return health
	}
	if resp.StatusCode() != 200 {
		c.logger.Warn("Device health check returned unexpected status",
			zap.String("device", device),
			zap.Int("status_code", resp.StatusCode()),
		)
		return health
	}
	if hr.Status != "healthy" {
		c.logger.Warn("Device reported unhealthy status",
			zap.String("device", device),
			zap.String("status", hr.Status),
		)
		return health
	}

	health.Online = true

	var mr mainResponse
	resp, err = c.httpClient.R().
		SetContext(ctx).
		SetResult(&mr).
		Get(fmt.Sprintf("http://%s:%d/", address, c.port))
	if err != nil {
		c.logger.Error("Failed to get device main data",
			zap.String("device", device),
			zap.Error(err),
		)
		return health
	}
	if resp.StatusCode() != 200 {
		c.logger.Warn("Device main API returned unexpected status",
			zap.String("device", device),
			zap.Int("status_code", resp.StatusCode()),
		)
		return health
	}

	if mr.Identity != "" {
		health.Identity = mr.Identity
	}
	health.TotalFiles = mr.TotalFiles
	health.UploadedFiles = mr.UploadedFiles
	return health
}
