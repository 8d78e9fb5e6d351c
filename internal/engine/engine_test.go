package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	devices := []string{"H1", "H2", "H3", "H4", "H5", "H6", "H7", "H8", "H9", "H10"}
	return NewEngine(devices, 10*time.Minute, zap.NewNop())
}

func TestEvaluate_CountIncreaseMovesToProcessing(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	status, err := e.Evaluate("H1", 5, now)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, status)

	snap, err := e.Snapshot("H1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, snap.Status)
	assert.Equal(t, 5, snap.Count)
}

func TestEvaluate_UnchangedUnderThresholdIsWaiting(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	_, err := e.Evaluate("H1", 5, now)
	require.NoError(t, err)

	status, err := e.Evaluate("H1", 5, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, status)
}

func TestEvaluate_UnchangedPastThresholdIsDone(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	_, err := e.Evaluate("H1", 5, now)
	require.NoError(t, err)

	status, err := e.Evaluate("H1", 5, now.Add(11*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)
}

func TestEvaluate_IdempotentForRepeatedSample(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	_, err := e.Evaluate("H1", 7, now)
	require.NoError(t, err)

	at := now.Add(time.Minute)
	first, err := e.Evaluate("H1", 7, at)
	require.NoError(t, err)
	second, err := e.Evaluate("H1", 7, at)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluate_DoneIsSticky(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	_, err := e.Evaluate("H1", 5, now)
	require.NoError(t, err)
	status, err := e.Evaluate("H1", 5, now.Add(11*time.Minute))
	require.NoError(t, err)
	require.Equal(t, StatusDone, status)

	// 计数不变时无论间隔多短或多长都保持 done
	for _, offset := range []time.Duration{11*time.Minute + time.Second, 12 * time.Minute, time.Hour} {
		status, err = e.Evaluate("H1", 5, now.Add(offset))
		require.NoError(t, err)
		assert.Equal(t, StatusDone, status)
	}

	// 只有计数再次增加才离开 done
	status, err = e.Evaluate("H1", 6, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, status)
}

func TestEvaluate_CountDecreaseIsAnomaly(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	_, err := e.Evaluate("H1", 100, now)
	require.NoError(t, err)
	status, err := e.Evaluate("H1", 100, now.Add(11*time.Minute))
	require.NoError(t, err)
	require.Equal(t, StatusDone, status)

	// 计数回退：warning + waiting，计数和变更时间都重置，不报错
	anomalyAt := now.Add(12 * time.Minute)
	status, err = e.Evaluate("H1", 40, anomalyAt)
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, status)

	snap, err := e.Snapshot("H1")
	require.NoError(t, err)
	assert.Equal(t, 40, snap.Count)

	// 变更时间已重置到异常时刻：之后 2 分钟内仍是 waiting，不会立即 done
	status, err = e.Evaluate("H1", 40, anomalyAt.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, status)
}

func TestEvaluate_UnknownDevice(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	_, err := e.Evaluate("H1", 5, now)
	require.NoError(t, err)

	_, err = e.Evaluate("H99", 5, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDevice)

	// 其它设备的状态不受影响
	snap, err := e.Snapshot("H1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, snap.Status)
	assert.Equal(t, 5, snap.Count)
}

func TestEvaluate_EndToEndSequence(t *testing.T) {
	e := newTestEngine(t)
	start := time.Now()

	snap, err := e.Snapshot("H5")
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, snap.Status)

	// counts [0, 10, 10, 10] at t=[0, 1, 2, 13] 分钟，阈值 10 分钟
	steps := []struct {
		count  int
		at     time.Duration
		expect Status
	}{
		{0, 0, StatusWaiting},
		{10, 1 * time.Minute, StatusProcessing},
		{10, 2 * time.Minute, StatusWaiting},
		{10, 13 * time.Minute, StatusDone},
	}
	for _, step := range steps {
		status, err := e.Evaluate("H5", step.count, start.Add(step.at))
		require.NoError(t, err)
		assert.Equal(t, step.expect, status, "count=%d at=%v", step.count, step.at)
	}
}

func TestSnapshotAll_DisabledOverlay(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	_, err := e.Evaluate("H2", 50, now)
	require.NoError(t, err)

	flags := map[string]bool{"H2": false}

	// 连续两次 disabled 投影
	for i := 0; i < 2; i++ {
		snaps := e.SnapshotAll(flags, nil)
		assert.Equal(t, StatusDisabled, snaps["H2"].Status)
		assert.Equal(t, 0, snaps["H2"].Count)
	}

	// 重新启用后内部状态原样恢复，没有被重置
	flags["H2"] = true
	snaps := e.SnapshotAll(flags, nil)
	assert.Equal(t, StatusProcessing, snaps["H2"].Status)
	assert.Equal(t, 50, snaps["H2"].Count)
}

func TestSnapshotAll_FlagDefaultsAndOffline(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	_, err := e.Evaluate("H1", 5, now)
	require.NoError(t, err)

	// flags 缺键默认受监控
	snaps := e.SnapshotAll(map[string]bool{}, nil)
	assert.Equal(t, StatusProcessing, snaps["H1"].Status)

	// online 显式 false → offline 覆盖（计数保留）
	snaps = e.SnapshotAll(nil, map[string]bool{"H1": false})
	assert.Equal(t, StatusOffline, snaps["H1"].Status)
	assert.Equal(t, 5, snaps["H1"].Count)

	// disabled 优先于 offline
	snaps = e.SnapshotAll(map[string]bool{"H1": false}, map[string]bool{"H1": false})
	assert.Equal(t, StatusDisabled, snaps["H1"].Status)
	assert.Equal(t, 0, snaps["H1"].Count)

	// 全部 10 个设备都有投影
	assert.Len(t, snaps, 10)
}
