package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/cache"
	"github.com/anthon-walters/Web-logmonitor/internal/engine"
)

func sampleSnapshot() *cache.CachedSnapshot {
	return &cache.CachedSnapshot{
		Statuses: map[string]engine.StatusSnapshot{
			"H1": {Status: engine.StatusProcessing, Count: 12},
			"H2": {Status: engine.StatusDisabled, Count: 0},
		},
		Online: map[string]bool{
			"H1": true,
			"H2": false,
		},
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSnapshotCache_RoundTripWithFakeKV(t *testing.T) {
	kv := newFakeKVStore()
	sc := cache.NewSnapshotCache(kv, zap.NewNop())
	ctx := context.Background()

	_, err := sc.Latest(ctx)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	want := sampleSnapshot()
	require.NoError(t, sc.Update(ctx, want))

	got, err := sc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusProcessing, got.Statuses["H1"].Status)
	assert.Equal(t, 12, got.Statuses["H1"].Count)
	assert.Equal(t, engine.StatusDisabled, got.Statuses["H2"].Status)
	assert.True(t, got.Online["H1"])
	assert.False(t, got.Online["H2"])
}

func TestSnapshotCache_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sc := cache.NewSnapshotCache(cache.NewRedisKVStore(client), zap.NewNop())
	ctx := context.Background()

	want := sampleSnapshot()
	require.NoError(t, sc.Update(ctx, want))

	got, err := sc.Latest(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Statuses, 2)

	// TTL 过期后按 cache miss 处理
	mr.FastForward(time.Minute)
	_, err = sc.Latest(ctx)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
