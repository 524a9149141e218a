package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.FrameRead()
	m.FrameRead()
	m.FrameSampled()
	m.FrameWritten()
	m.Detected("Phone", 2)
	m.Detected("Phone", 0)
	m.DetectorFailed(StageRefinement)
	m.RegionSkipped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesRead))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesSampled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Detections.WithLabelValues("Phone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DetectorFailures.WithLabelValues(StageRefinement)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedRegions))
}

func TestMetricsStage(t *testing.T) {
	m := New()
	m.StartStage(StagePrimary)()

	assert.Equal(t, 1, testutil.CollectAndCount(m.StageLatency))
}

func TestMetricsSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.FrameRead()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.FramesRead))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FramesRead))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FrameRead()
		m.FrameSampled()
		m.FrameWritten()
		m.Detected("Drink", 1)
		m.DetectorFailed(StagePrimary)
		m.RegionSkipped()
		m.StartStage(StageFrame)()
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.FrameRead()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "behavior_frames_read_total 1"))
}
