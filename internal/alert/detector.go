package alert

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// record 单设备的闪烁跟踪记录
// 时间戳独立于引擎自身的 last_change_time：这里记录的是"最后一次有状态
// 更新落地"的时刻，不是计数最后一次变化的时刻
type record struct {
	lastUpdate time.Time
	lastSeen   int
	flashing   bool
}

// Detector 陈旧状态检测器
// 当某设备长时间没有状态更新、而独立采样的外部计数（磁盘文件数）已经
// 明显偏离最后一次快照时，驱动展示端对该设备的指示块闪烁。
// Check 的调用节奏必须与期望的视觉闪烁频率 1:1，否则闪烁会变快。
type Detector struct {
	mu                 sync.Mutex
	records            map[string]*record
	staleThreshold     time.Duration
	processedThreshold int
	logger             *zap.Logger
}

// NewDetector 创建检测器
func NewDetector(staleThreshold time.Duration, processedThreshold int, logger *zap.Logger) *Detector {
	return &Detector{
		records:            make(map[string]*record),
		staleThreshold:     staleThreshold,
		processedThreshold: processedThreshold,
		logger:             logger,
	}
}

// RecordUpdate 记录一次状态更新落地（引擎评估成功后调用）
func (d *Detector) RecordUpdate(device string, count int, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[device]
	if !ok {
		rec = &record{}
		d.records[device] = rec
	}
	rec.lastUpdate = now
	rec.lastSeen = count
}

// Check 判断本个 tick 设备是否处于闪烁相位
// 仅对受监控且有过更新记录的设备生效。条件满足时翻转闪烁相位并返回
// 翻转后的值（连续 tick 交替 true/false）；条件不满足时返回 false 且不翻转。
func (d *Detector) Check(device string, externalCount int, monitored bool, now time.Time) bool {
	if !monitored {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[device]
	if !ok {
		return false
	}

	sinceUpdate := now.Sub(rec.lastUpdate)
	diff := externalCount - rec.lastSeen
	if diff < 0 {
		diff = -diff
	}

	if sinceUpdate > d.staleThreshold && diff > d.processedThreshold {
		rec.flashing = !rec.flashing
		if rec.flashing {
			d.logger.Debug("Device status is stale, flashing",
				zap.String("device", device),
				zap.Duration("since_update", sinceUpdate),
				zap.Int("count_diff", diff),
			)
		}
		return rec.flashing
	}

	rec.flashing = false
	return false
}
