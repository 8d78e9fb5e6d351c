package collector

import "errors"

// ErrUpstreamUnavailable 上游超时或连接失败（可恢复，本周期按"无采样"处理）
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ErrMalformedResponse 上游返回 200 但响应不可解析或状态码异常
var ErrMalformedResponse = errors.New("malformed upstream response")
