package service

import (
	"sync"

	"github.com/anthon-walters/Web-logmonitor/internal/models"
)

// DashboardState 各采集循环共享的聚合视图
// 每类数据由单一循环写入，展示端（REST / websocket / MQTT）只读副本
type DashboardState struct {
	mu sync.RWMutex

	flags      map[string]bool                    // 监控开关快照（缺键默认 true）
	stats      map[string]models.DeviceStatistics // 统计服务器最近一次采样
	fileCounts map[string]int                     // 文件计数最近一次采样
	online     map[string]bool                    // 健康探测结果
	monitor    map[string]models.MonitorEntry     // 设备自报身份 + processed/uploaded
	flash      map[string]bool                    // 闪烁相位
	rates      models.SuccessRates
}

// NewDashboardState 创建空的聚合视图
func NewDashboardState() *DashboardState {
	return &DashboardState{
		flags:      make(map[string]bool),
		stats:      make(map[string]models.DeviceStatistics),
		fileCounts: make(map[string]int),
		online:     make(map[string]bool),
		monitor:    make(map[string]models.MonitorEntry),
		flash:      make(map[string]bool),
	}
}

// SetFlags 整体替换监控开关快照（每个评估周期读取一次的一致副本）
func (s *DashboardState) SetFlags(flags map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = flags
}

// Flags 返回监控开关快照副本
func (s *DashboardState) Flags() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.flags))
	for k, v := range s.flags {
		out[k] = v
	}
	return out
}

// Monitored 单设备是否受监控（缺键默认 true）
func (s *DashboardState) Monitored(device string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.flags[device]; ok {
		return v
	}
	return true
}

// SetFlag 更新单设备开关（操作员切换后立即生效，不等下个周期）
func (s *DashboardState) SetFlag(device string, monitored bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[device] = monitored
}

// SetStatistics 记录单设备统计采样
func (s *DashboardState) SetStatistics(device string, stats models.DeviceStatistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[device] = stats
}

// Statistics 返回统计采样副本
func (s *DashboardState) Statistics() map[string]models.DeviceStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.DeviceStatistics, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out
}

// SetFileCount 记录单设备文件计数
func (s *DashboardState) SetFileCount(device string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileCounts[device] = count
}

// FileCounts 返回文件计数副本
func (s *DashboardState) FileCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.fileCounts))
	for k, v := range s.fileCounts {
		out[k] = v
	}
	return out
}

// SetOnline 记录单设备在线状态
func (s *DashboardState) SetOnline(device string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[device] = online
}

// Online 返回在线状态副本
func (s *DashboardState) Online() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.online))
	for k, v := range s.online {
		out[k] = v
	}
	return out
}

// SetMonitorEntry 记录单设备监控行
func (s *DashboardState) SetMonitorEntry(device string, entry models.MonitorEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitor[device] = entry
}

// MonitorEntry 返回单设备监控行
func (s *DashboardState) MonitorEntry(device string) (models.MonitorEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.monitor[device]
	return entry, ok
}

// SetFlash 记录单设备闪烁相位
func (s *DashboardState) SetFlash(device string, flashing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash[device] = flashing
}

// FlashStates 返回闪烁相位副本
func (s *DashboardState) FlashStates() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.flash))
	for k, v := range s.flash {
		out[k] = v
	}
	return out
}

// SetSuccessRates 记录全局成功率
func (s *DashboardState) SetSuccessRates(rates models.SuccessRates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = rates
}

// SuccessRates 返回全局成功率
func (s *DashboardState) SuccessRates() models.SuccessRates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rates
}
