package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/models"
)

// StatsClient 中心统计服务器客户端
// 所有失败都在这里被归类为 ErrUpstreamUnavailable / ErrMalformedResponse，
// 调用方按"本周期无采样"处理，不会把错误传进引擎
type StatsClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewStatsClient 创建统计服务器客户端
func NewStatsClient(host string, port int, timeout time.Duration, logger *zap.Logger) *StatsClient {
	client := resty.New().
		SetBaseURL(fmt.Sprintf("http://%s:%d", host, port)).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &StatsClient{
		httpClient: client,
		logger:     logger,
	}
}

// GetStatistics 获取单设备统计计数
// JSON 中缺失的字段保持零值（视为 0）
func (c *StatsClient) GetStatistics(ctx context.Context, device string) (*models.DeviceStatistics, error) {
	var stats models.DeviceStatistics

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&stats).
		Get("/statistics/" + device)
	if err != nil {
		// resty 在传输失败和 JSON 解析失败时都返回 err；
		// 已拿到 200 响应的按 malformed 归类
		if resp != nil && resp.StatusCode() == 200 {
			c.logger.Error("Failed to parse statistics response",
				zap.String("device", device),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: statistics for %s: %v", ErrMalformedResponse, device, err)
		}
		c.logger.Warn("Statistics request failed",
			zap.String("device", device),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: statistics for %s: %v", ErrUpstreamUnavailable, device, err)
	}

	if resp.StatusCode() != 200 {
		c.logger.Error("Statistics API returned unexpected status",
			zap.String("device", device),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: statistics for %s returned status %d",
			ErrMalformedResponse, device, resp.StatusCode())
	}

	return &stats, nil
}
