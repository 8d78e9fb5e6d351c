package registry

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DeviceListHeader 设备清单表头
var DeviceListHeader = []string{
	"Device",
	"IP Address",
}

// NewFromExcel 创建注册表，地址从运维维护的设备清单 Excel 加载
// 第一张工作表，首行为表头，Device 列取 H1..H10，IP 为空的行跳过
func NewFromExcel(path string, logger *zap.Logger) (*Registry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device list: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("device list has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("device list has no data rows")
	}

	r := New()
	for i, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		device := strings.TrimSpace(row[0])
		ip := strings.TrimSpace(row[1])
		if device == "" || ip == "" {
			continue
		}
		if !r.Contains(device) {
			logger.Warn("Skipping unknown device in device list",
				zap.String("device", device),
				zap.Int("row", i+2),
			)
			continue
		}
		r.addresses[device] = ip
	}

	logger.Info("Loaded device list from Excel",
		zap.String("path", path),
		zap.Int("count", len(r.addresses)),
	)
	return r, nil
}
