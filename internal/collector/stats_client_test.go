package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newStatsClientFor 把客户端指到一个 httptest 假统计服务器
func newStatsClientFor(t *testing.T, srv *httptest.Server) *StatsClient {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewStatsClient(u.Hostname(), port, 2*time.Second, zap.NewNop())
}

func TestGetStatistics_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/statistics/H3", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_images": 120, "cv_processed_images": 100, "images_with_bibs": 80, "cv_success_rate": 83.3, "bib_detection_rate": 66.7}`))
	}))
	defer srv.Close()

	c := newStatsClientFor(t, srv)
	stats, err := c.GetStatistics(context.Background(), "H3")
	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalImages)
	assert.Equal(t, 100, stats.CVProcessedImages)
	assert.Equal(t, 80, stats.ImagesWithBibs)
	assert.InDelta(t, 83.3, stats.CVSuccessRate, 0.001)
	assert.InDelta(t, 66.7, stats.BibDetectionRate, 0.001)
}

func TestGetStatistics_MissingFieldsDefaultToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_images": 42}`))
	}))
	defer srv.Close()

	c := newStatsClientFor(t, srv)
	stats, err := c.GetStatistics(context.Background(), "H1")
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalImages)
	assert.Equal(t, 0, stats.CVProcessedImages)
	assert.Equal(t, 0, stats.ImagesWithBibs)
}

func TestGetStatistics_Non200IsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newStatsClientFor(t, srv)
	_, err := c.GetStatistics(context.Background(), "H1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetStatistics_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // 立即关掉，制造连接拒绝

	c := newStatsClientFor(t, srv)
	_, err := c.GetStatistics(context.Background(), "H1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
