package models

// DeviceStatistics 统计服务器返回的单设备统计数据
// 字段名与 /statistics/{device} 接口的 JSON 保持一致，缺失字段按 0 处理
type DeviceStatistics struct {
	TotalImages       int     `json:"total_images"`
	CVProcessedImages int     `json:"cv_processed_images"`
	ImagesWithBibs    int     `json:"images_with_bibs"`
	CVSuccessRate     float64 `json:"cv_success_rate"`
	BibDetectionRate  float64 `json:"bib_detection_rate"`
}

// DeviceHealth 设备健康探测结果（/health + 主接口）
type DeviceHealth struct {
	Online        bool   `json:"online"`
	Identity      string `json:"identity"`
	TotalFiles    int    `json:"totalFiles"`
	UploadedFiles int    `json:"uploadedFiles"`
}

// FileCountEntry 单设备目录下的文件计数
type FileCountEntry struct {
	Directory string `json:"directory"`
	Count     int    `json:"count"`
}

// DeviceCountEntry 单设备计数（sent/tagged/bibs 三类统计共用）
type DeviceCountEntry struct {
	Device string `json:"device"`
	Count  int    `json:"count"`
}

// MonitorEntry 设备监控行（自报身份 + processed/uploaded 计数）
type MonitorEntry struct {
	Device    string `json:"device"`
	Processed int    `json:"processed"`
	Uploaded  int    `json:"uploaded"`
}

// SuccessRates 全局成功率（受监控设备的平均值）
type SuccessRates struct {
	CVRate  float64 `json:"cv_rate"`
	BibRate float64 `json:"bib_rate"`
}

// BroadcastMessage 推送通道（websocket / MQTT）的消息封装
// Type: processing_status | pi_status | file_counts | pi_monitor | success_rates
type BroadcastMessage struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}
