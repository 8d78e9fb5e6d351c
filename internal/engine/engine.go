package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownDevice 传入了注册表之外的设备 ID（调用方 bug，不是瞬态故障）
var ErrUnknownDevice = errors.New("unknown device")

// deviceState 单设备内部状态，仅由 Engine 持有和修改
type deviceState struct {
	lastCount  int
	lastChange time.Time
	status     Status
}

// Engine 处理状态引擎
// 将各设备周期性到达的 (device, observed_count) 采样转换为稳定的状态分类。
// last_change_time 只在计数增加或计数回退（异常）时重置；done 状态粘滞，
// 只有计数再次增加才会离开 done。
type Engine struct {
	mu             sync.Mutex
	states         map[string]*deviceState
	staleThreshold time.Duration
	logger         *zap.Logger
}

// NewEngine 创建引擎，为每个已知设备建立初始状态（waiting / count=0）
func NewEngine(devices []string, staleThreshold time.Duration, logger *zap.Logger) *Engine {
	now := time.Now()
	states := make(map[string]*deviceState, len(devices))
	for _, d := range devices {
		states[d] = &deviceState{
			lastCount:  0,
			lastChange: now,
			status:     StatusWaiting,
		}
	}
	return &Engine{
		states:         states,
		staleThreshold: staleThreshold,
		logger:         logger,
	}
}

// Evaluate 用一次新的计数观测更新设备状态并返回结果
func (e *Engine) Evaluate(device string, observedCount int, now time.Time) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.states[device]
	if !ok {
		e.logger.Warn("Attempted to evaluate unknown device",
			zap.String("device", device),
			zap.Int("observed_count", observedCount),
		)
		return "", fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}

	switch {
	case observedCount > state.lastCount:
		state.status = StatusProcessing
		state.lastChange = now
		state.lastCount = observedCount

	case observedCount == state.lastCount:
		if state.status != StatusDone {
			if now.Sub(state.lastChange) > e.staleThreshold {
				state.status = StatusDone
			} else {
				state.status = StatusWaiting
			}
		}
		// done 粘滞：计数不变时保持 done，不回落 waiting

	default: // observedCount < state.lastCount：上游计数器被重置或设备被更换
		e.logger.Warn("Count decreased unexpectedly",
			zap.String("device", device),
			zap.Int("last_count", state.lastCount),
			zap.Int("observed_count", observedCount),
		)
		state.status = StatusWaiting
		state.lastChange = now
		state.lastCount = observedCount
	}

	return state.status, nil
}

// Snapshot 返回单设备的内部状态快照
func (e *Engine) Snapshot(device string) (StatusSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.states[device]
	if !ok {
		return StatusSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}
	return StatusSnapshot{Status: state.status, Count: state.lastCount}, nil
}

// LastCount 返回设备最近一次观测到的计数（闪烁检测用）
func (e *Engine) LastCount(device string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.states[device]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}
	return state.lastCount, nil
}

// SnapshotAll 按监控开关和在线状态投影全部设备状态
// 纯读操作，不修改内部状态：
// - 未监控的设备显示 disabled / count=0（内部状态保留，重新启用后从原状态继续）
// - 已监控但健康探测失败（online 显式为 false）的设备显示 offline
// flags/online 缺失的键分别默认 true（受监控）和不覆盖
func (e *Engine) SnapshotAll(flags map[string]bool, online map[string]bool) map[string]StatusSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make(map[string]StatusSnapshot, len(e.states))
	for device, state := range e.states {
		monitored := true
		if flags != nil {
			if v, ok := flags[device]; ok {
				monitored = v
			}
		}
		if !monitored {
			result[device] = StatusSnapshot{Status: StatusDisabled, Count: 0}
			continue
		}
		if online != nil {
			if v, ok := online[device]; ok && !v {
				result[device] = StatusSnapshot{Status: StatusOffline, Count: state.lastCount}
				continue
			}
		}
		result[device] = StatusSnapshot{Status: state.status, Count: state.lastCount}
	}
	return result
}
