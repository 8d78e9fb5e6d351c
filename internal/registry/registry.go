package registry

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// DeviceCount 固定的设备槽位数（H1..H10）
const DeviceCount = 10

// Registry 设备注册表：固定的设备 ID 集合 + 可选的网络地址映射
// 进程生命周期内只读，不做增删
type Registry struct {
	devices   []string
	addresses map[string]string
}

// New 创建只含设备 ID（无地址）的注册表
func New() *Registry {
	devices := make([]string, 0, DeviceCount)
	for i := 1; i <= DeviceCount; i++ {
		devices = append(devices, fmt.Sprintf("H%d", i))
	}
	return &Registry{
		devices:   devices,
		addresses: make(map[string]string),
	}
}

// NewFromEnv 创建注册表，地址从 PI_1_IP..PI_10_IP 环境变量加载
func NewFromEnv(logger *zap.Logger) *Registry {
	r := New()
	for i := 1; i <= DeviceCount; i++ {
		name := fmt.Sprintf("H%d", i)
		if ip := os.Getenv(fmt.Sprintf("PI_%d_IP", i)); ip != "" {
			r.addresses[name] = ip
		}
	}

	if len(r.addresses) == 0 {
		logger.Error("No Pi IP addresses configured in environment")
	} else {
		logger.Info("Loaded Pi IP addresses",
			zap.Int("count", len(r.addresses)),
		)
	}
	return r
}

// Devices 返回全部设备 ID（按 H1..H10 顺序）
func (r *Registry) Devices() []string {
	out := make([]string, len(r.devices))
	copy(out, r.devices)
	return out
}

// Contains 判断设备 ID 是否已注册
func (r *Registry) Contains(device string) bool {
	_, ok := r.addresses[device]
	if ok {
		return true
	}
	for _, d := range r.devices {
		if d == device {
			return true
		}
	}
	return false
}

// Address 返回设备的网络地址；未配置地址的设备返回 ok=false
func (r *Registry) Address(device string) (string, bool) {
	addr, ok := r.addresses[device]
	return addr, ok
}

// Addresses 返回已配置地址的设备映射（副本）
func (r *Registry) Addresses() map[string]string {
	out := make(map[string]string, len(r.addresses))
	for k, v := range r.addresses {
		out[k] = v
	}
	return out
}
