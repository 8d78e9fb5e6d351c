package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/alert"
	"github.com/anthon-walters/Web-logmonitor/internal/cache"
	"github.com/anthon-walters/Web-logmonitor/internal/collector"
	"github.com/anthon-walters/Web-logmonitor/internal/config"
	"github.com/anthon-walters/Web-logmonitor/internal/engine"
	"github.com/anthon-walters/Web-logmonitor/internal/models"
	"github.com/anthon-walters/Web-logmonitor/internal/registry"
	"github.com/anthon-walters/Web-logmonitor/internal/ws"
)

// filePattern 文件计数匹配的文件名片段
const filePattern = ".JPG"

// FlagStore 监控开关的持久化存储
type FlagStore interface {
	GetAll(ctx context.Context) (map[string]bool, error)
	Set(ctx context.Context, deviceID string, monitored bool) error
}

// StatusPublisher 可选的外部推送通道（MQTT）
type StatusPublisher interface {
	PublishStatus(payload interface{}) error
	IsConnected() bool
}

// ProcessingStatusEntry 展示端看到的单设备处理状态
type ProcessingStatusEntry struct {
	Status   engine.Status `json:"status"`
	Count    int           `json:"count"`
	Flashing bool          `json:"flashing"`
}

// StatisticsPayload 按设备的 sent/tagged/bibs 统计（REST 与推送通道共用）
type StatisticsPayload struct {
	Sent        []models.DeviceCountEntry `json:"sent"`
	Tagged      []models.DeviceCountEntry `json:"tagged"`
	Bibs        []models.DeviceCountEntry `json:"bibs"`
	TotalSent   int                       `json:"total_sent"`
	TotalTagged int                       `json:"total_tagged"`
	TotalBibs   int                       `json:"total_bibs"`
}

// FileCountsPayload 文件计数响应
type FileCountsPayload struct {
	FileCounts []models.FileCountEntry `json:"file_counts"`
	TotalFiles int                     `json:"total_files"`
}

// MonitorService 监控主服务
// 持有全部采集循环和共享状态：
//   - statistics 循环：轮询统计服务器，驱动处理状态引擎
//   - pi status 循环：探测现场设备健康和自报身份
//   - file count 循环：统计网络共享上的文件数
//   - flash 循环：陈旧状态闪烁判定（节奏与视觉闪烁频率 1:1）
//   - broadcast 循环：聚合快照写缓存并向推送通道广播
type MonitorService struct {
	config       *config.Config
	logger       *zap.Logger
	registry     *registry.Registry
	engine       *engine.Engine
	detector     *alert.Detector
	statsClient  *collector.StatsClient
	healthClient *collector.HealthClient
	fileCounter  *collector.FileCounter
	flagStore    FlagStore
	cache        *cache.SnapshotCache
	hub          *ws.Hub
	publisher    StatusPublisher
	state        *DashboardState
	startTime    time.Time
}

// New 创建监控服务
// publisher 可以为 nil（MQTT 未启用时）
func New(cfg *config.Config, logger *zap.Logger, reg *registry.Registry,
	flagStore FlagStore, kv cache.KVStore, hub *ws.Hub, publisher StatusPublisher) *MonitorService {

	return &MonitorService{
		config:       cfg,
		logger:       logger,
		registry:     reg,
		engine:       engine.NewEngine(reg.Devices(), cfg.Monitor.StaleThreshold, logger),
		detector:     alert.NewDetector(cfg.Monitor.StatusStaleThreshold, cfg.Monitor.ProcessedThreshold, logger),
		statsClient:  collector.NewStatsClient(cfg.StatsServer.Host, cfg.StatsServer.Port, cfg.Monitor.StatsTimeout, logger),
		healthClient: collector.NewHealthClient(cfg.FieldDevice.Port, cfg.Monitor.HealthTimeout, cfg.API.Username, cfg.API.Password, logger),
		fileCounter:  collector.NewFileCounter(cfg.Share.BasePath, logger),
		flagStore:    flagStore,
		cache:        cache.NewSnapshotCache(kv, logger),
		hub:          hub,
		publisher:    publisher,
		state:        NewDashboardState(),
		startTime:    time.Now(),
	}
}

// Start 启动全部采集循环并阻塞到 ctx 取消
func (s *MonitorService) Start(ctx context.Context) {
	s.logger.Info("Starting monitor service",
		zap.Int("device_count", len(s.registry.Devices())),
		zap.String("share_path", s.fileCounter.BasePath()),
		zap.Duration("statistics_interval", s.config.Monitor.StatisticsInterval),
		zap.Duration("flash_interval", s.config.Monitor.FlashInterval),
	)

	go s.hub.Run(ctx)
	go s.runLoop(ctx, "statistics", s.config.Monitor.StatisticsInterval, s.collectStatistics)
	go s.runLoop(ctx, "pi_status", s.config.Monitor.PiStatusInterval, s.probeDevices)
	go s.runLoop(ctx, "file_count", s.config.Monitor.FileCountInterval, s.refreshFileCounts)
	go s.runLoop(ctx, "flash", s.config.Monitor.FlashInterval, s.checkFlash)
	go s.runLoop(ctx, "broadcast", s.config.Monitor.BroadcastInterval, s.publishSnapshot)

	<-ctx.Done()
	s.logger.Info("Monitor service stopped")
}

// runLoop 先立即执行一次，之后按固定间隔执行
func (s *MonitorService) runLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Loop stopped", zap.String("loop", name))
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// refreshFlags 从存储读取监控开关快照
// 读取失败时沿用上一次的快照，不让数据库抖动打断采集
func (s *MonitorService) refreshFlags(ctx context.Context) map[string]bool {
	flags, err := s.flagStore.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load monitor settings, using previous snapshot",
			zap.Error(err),
		)
		return s.state.Flags()
	}
	s.state.SetFlags(flags)
	return flags
}

// monitoredFlag 快照中缺失的设备默认受监控
func monitoredFlag(flags map[string]bool, device string) bool {
	if v, ok := flags[device]; ok {
		return v
	}
	return true
}

// collectStatistics 统计采集周期：轮询统计服务器并驱动状态引擎
func (s *MonitorService) collectStatistics(ctx context.Context) {
	flags := s.refreshFlags(ctx)
	now := time.Now()

	var cvSum, bibSum float64
	rated := 0

	for _, device := range s.registry.Devices() {
		if !monitoredFlag(flags, device) {
			// 未监控：本周期不轮询，展示侧清零
			s.state.SetStatistics(device, models.DeviceStatistics{})
			continue
		}

		stats, err := s.statsClient.GetStatistics(ctx, device)
		if err != nil {
			// 本周期无采样，保留上一次的值
			continue
		}
		s.state.SetStatistics(device, *stats)

		if _, err := s.engine.Evaluate(device, stats.TotalImages, now); err != nil {
			s.logger.Error("Failed to evaluate device status",
				zap.String("device", device),
				zap.Error(err),
			)
			continue
		}
		s.detector.RecordUpdate(device, stats.TotalImages, now)

		if stats.TotalImages > 0 {
			cvSum += stats.CVSuccessRate
			bibSum += stats.BibDetectionRate
			rated++
		}
	}

	rates := models.SuccessRates{}
	if rated > 0 {
		rates.CVRate = cvSum / float64(rated)
		rates.BibRate = bibSum / float64(rated)
	}
	s.state.SetSuccessRates(rates)
}

// probeDevices 健康探测周期：逐台设备取在线状态和自报身份
func (s *MonitorService) probeDevices(ctx context.Context) {
	flags := s.state.Flags()

	for _, device := range s.registry.Devices() {
		addr, hasAddr := s.registry.Address(device)
		if !monitoredFlag(flags, device) || !hasAddr {
			s.state.SetOnline(device, false)
			s.state.SetMonitorEntry(device, models.MonitorEntry{Device: device})
			continue
		}

		health := s.healthClient.CheckDevice(ctx, device, addr)
		s.state.SetOnline(device, health.Online)
		s.state.SetMonitorEntry(device, models.MonitorEntry{
			Device:    health.Identity,
			Processed: health.TotalFiles,
			Uploaded:  health.UploadedFiles,
		})
	}
}

// refreshFileCounts 文件计数周期：统计共享上每台设备目录的文件数
func (s *MonitorService) refreshFileCounts(ctx context.Context) {
	if !s.fileCounter.IsConnected() {
		s.logger.Warn("Share not connected, skipping file count cycle")
		return
	}

	flags := s.state.Flags()
	for _, device := range s.registry.Devices() {
		if !monitoredFlag(flags, device) {
			s.state.SetFileCount(device, 0)
			continue
		}
		s.state.SetFileCount(device, s.fileCounter.CountFiles(device, filePattern))
	}
}

// checkFlash 闪烁判定周期
// 每个 tick 对每台设备做一次判定，相位翻转由检测器内部维护
func (s *MonitorService) checkFlash(ctx context.Context) {
	flags := s.state.Flags()
	counts := s.state.FileCounts()
	now := time.Now()

	for _, device := range s.registry.Devices() {
		// 还没有文件计数采样的设备（如共享一直不可达）不参与判定
		count, sampled := counts[device]
		if !sampled {
			continue
		}
		flashing := s.detector.Check(device, count, monitoredFlag(flags, device), now)
		s.state.SetFlash(device, flashing)
	}
}

// publishSnapshot 广播周期：聚合快照写缓存并推送到 websocket / MQTT
func (s *MonitorService) publishSnapshot(ctx context.Context) {
	flags := s.state.Flags()
	online := s.state.Online()
	statuses := s.engine.SnapshotAll(flags, online)

	snapshot := &cache.CachedSnapshot{
		Statuses:  statuses,
		Online:    online,
		Timestamp: time.Now(),
	}
	if err := s.cache.Update(ctx, snapshot); err != nil {
		s.logger.Error("Failed to update snapshot cache", zap.Error(err))
	}

	s.hub.Broadcast("processing_status", s.ProcessingStatus())
	s.hub.Broadcast("pi_status", online)
	s.hub.Broadcast("file_counts", s.FileCounts())
	s.hub.Broadcast("pi_monitor", s.MonitorRows())
	s.hub.Broadcast("success_rates", s.state.SuccessRates())

	if s.publisher != nil && s.publisher.IsConnected() {
		if err := s.publisher.PublishStatus(snapshot); err != nil {
			s.logger.Error("Failed to publish snapshot to MQTT", zap.Error(err))
		}
	}
}

// ProcessingStatus 合并状态投影与闪烁相位，按设备返回
func (s *MonitorService) ProcessingStatus() map[string]ProcessingStatusEntry {
	statuses := s.engine.SnapshotAll(s.state.Flags(), s.state.Online())
	flash := s.state.FlashStates()

	result := make(map[string]ProcessingStatusEntry, len(statuses))
	for device, snap := range statuses {
		result[device] = ProcessingStatusEntry{
			Status:   snap.Status,
			Count:    snap.Count,
			Flashing: flash[device],
		}
	}
	return result
}

// FileCounts 按 H1..H10 顺序返回文件计数和总数
func (s *MonitorService) FileCounts() FileCountsPayload {
	counts := s.state.FileCounts()

	payload := FileCountsPayload{
		FileCounts: make([]models.FileCountEntry, 0, len(s.registry.Devices())),
	}
	for _, device := range s.registry.Devices() {
		count := counts[device]
		payload.FileCounts = append(payload.FileCounts, models.FileCountEntry{
			Directory: device,
			Count:     count,
		})
		payload.TotalFiles += count
	}
	return payload
}

// OnlineStatus 返回在线状态映射
func (s *MonitorService) OnlineStatus() map[string]bool {
	return s.state.Online()
}

// Statistics 按 H1..H10 顺序返回 sent/tagged/bibs 统计
func (s *MonitorService) Statistics() StatisticsPayload {
	stats := s.state.Statistics()

	devices := s.registry.Devices()
	payload := StatisticsPayload{
		Sent:   make([]models.DeviceCountEntry, 0, len(devices)),
		Tagged: make([]models.DeviceCountEntry, 0, len(devices)),
		Bibs:   make([]models.DeviceCountEntry, 0, len(devices)),
	}
	for _, device := range devices {
		st := stats[device]
		payload.Sent = append(payload.Sent, models.DeviceCountEntry{Device: device, Count: st.TotalImages})
		payload.Tagged = append(payload.Tagged, models.DeviceCountEntry{Device: device, Count: st.CVProcessedImages})
		payload.Bibs = append(payload.Bibs, models.DeviceCountEntry{Device: device, Count: st.ImagesWithBibs})
		payload.TotalSent += st.TotalImages
		payload.TotalTagged += st.CVProcessedImages
		payload.TotalBibs += st.ImagesWithBibs
	}
	return payload
}

// MonitorRows 按 H1..H10 顺序返回设备监控行
func (s *MonitorService) MonitorRows() []models.MonitorEntry {
	rows := make([]models.MonitorEntry, 0, len(s.registry.Devices()))
	for _, device := range s.registry.Devices() {
		entry, ok := s.state.MonitorEntry(device)
		if !ok {
			entry = models.MonitorEntry{Device: device}
		}
		rows = append(rows, entry)
	}
	return rows
}

// SuccessRates 返回受监控设备的全局成功率
func (s *MonitorService) SuccessRates() models.SuccessRates {
	return s.state.SuccessRates()
}

// MonitoringFlags 返回监控开关快照（缺失的设备补默认值 true）
func (s *MonitorService) MonitoringFlags() map[string]bool {
	flags := s.state.Flags()
	result := make(map[string]bool, len(s.registry.Devices()))
	for _, device := range s.registry.Devices() {
		result[device] = monitoredFlag(flags, device)
	}
	return result
}

// SetMonitoring 切换单设备监控开关：写库成功后立即更新内存快照
func (s *MonitorService) SetMonitoring(ctx context.Context, device string, monitored bool) error {
	if !s.registry.Contains(device) {
		return fmt.Errorf("%w: %s", engine.ErrUnknownDevice, device)
	}

	if err := s.flagStore.Set(ctx, device, monitored); err != nil {
		return fmt.Errorf("failed to persist monitor setting: %w", err)
	}
	s.state.SetFlag(device, monitored)

	s.logger.Info("Device monitoring toggled",
		zap.String("device", device),
		zap.Bool("monitored", monitored),
	)
	return nil
}

// LatestSnapshot 读取缓存中最近一次广播快照
func (s *MonitorService) LatestSnapshot(ctx context.Context) (*cache.CachedSnapshot, error) {
	return s.cache.Latest(ctx)
}

// CachedProcessingStatus 把缓存中最近一次快照投影成 processing_status 广播的
// 消息形状（websocket 接入回放用；闪烁相位不入缓存，回放时为 false）
func (s *MonitorService) CachedProcessingStatus(ctx context.Context) (map[string]ProcessingStatusEntry, error) {
	snapshot, err := s.cache.Latest(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]ProcessingStatusEntry, len(snapshot.Statuses))
	for device, snap := range snapshot.Statuses {
		result[device] = ProcessingStatusEntry{
			Status: snap.Status,
			Count:  snap.Count,
		}
	}
	return result, nil
}

// Hub 返回 websocket 广播中心
func (s *MonitorService) Hub() *ws.Hub {
	return s.hub
}

// ShareConnected 网络共享是否可访问
func (s *MonitorService) ShareConnected() bool {
	return s.fileCounter.IsConnected()
}

// Uptime 服务已运行时长
func (s *MonitorService) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// DebugInfo 调试接口的内部状态汇总
func (s *MonitorService) DebugInfo() map[string]interface{} {
	return map[string]interface{}{
		"share_path":      s.fileCounter.BasePath(),
		"share_connected": s.fileCounter.IsConnected(),
		"addresses":       s.registry.Addresses(),
		"monitoring":      s.MonitoringFlags(),
		"file_counts":     s.state.FileCounts(),
		"online":          s.state.Online(),
		"ws_clients":      s.hub.ClientCount(),
		"uptime_seconds":  int(s.Uptime().Seconds()),
	}
}
