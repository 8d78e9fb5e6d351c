package engine

// Status 设备处理状态
// 颜色等展示映射由各个展示端自行维护，核心只输出枚举
type Status string

const (
	StatusProcessing Status = "processing"
	StatusWaiting    Status = "waiting"
	StatusDone       Status = "done"
	StatusDisabled   Status = "disabled"
	StatusOffline    Status = "offline"
)

// StatusSnapshot 单设备状态快照（只读投影）
type StatusSnapshot struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}
