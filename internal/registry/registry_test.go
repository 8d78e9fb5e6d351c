package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestNew_TenDevices(t *testing.T) {
	r := New()

	devices := r.Devices()
	require.Len(t, devices, DeviceCount)
	assert.Equal(t, "H1", devices[0])
	assert.Equal(t, "H10", devices[9])

	assert.True(t, r.Contains("H5"))
	assert.False(t, r.Contains("H11"))
	assert.False(t, r.Contains("H99"))

	_, ok := r.Address("H5")
	assert.False(t, ok)
}

func TestNewFromEnv_LoadsAddresses(t *testing.T) {
	os.Clearenv()
	os.Setenv("PI_1_IP", "192.168.1.101")
	os.Setenv("PI_3_IP", "192.168.1.103")
	defer os.Clearenv()

	r := NewFromEnv(zap.NewNop())

	addr, ok := r.Address("H1")
	require.True(t, ok)
	assert.Equal(t, "192.168.1.101", addr)

	addr, ok = r.Address("H3")
	require.True(t, ok)
	assert.Equal(t, "192.168.1.103", addr)

	_, ok = r.Address("H2")
	assert.False(t, ok)

	assert.Len(t, r.Addresses(), 2)
}

func TestNewFromExcel_LoadsAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.xlsx")
	writeDeviceList(t, path, [][]string{
		{"Device", "IP Address"},
		{"H1", "10.0.0.11"},
		{"H2", ""},
		{"H7", "10.0.0.17"},
		{"H99", "10.0.0.99"},
	})

	r, err := NewFromExcel(path, zap.NewNop())
	require.NoError(t, err)

	addr, ok := r.Address("H1")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.11", addr)

	addr, ok = r.Address("H7")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.17", addr)

	// 空 IP 行和未知设备行被跳过
	_, ok = r.Address("H2")
	assert.False(t, ok)
	assert.Len(t, r.Addresses(), 2)
}

func TestNewFromExcel_NoDataRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.xlsx")
	writeDeviceList(t, path, [][]string{
		{"Device", "IP Address"},
	})

	_, err := NewFromExcel(path, zap.NewNop())
	assert.Error(t, err)
}

func writeDeviceList(t *testing.T, path string, rows [][]string) {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			cellName, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cellName, cell))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}
