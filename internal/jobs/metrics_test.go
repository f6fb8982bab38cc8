package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerEnd(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	require.NoError(t, m.Track("collections:refresh").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("collections:refresh").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("collections:refresh", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("collections:refresh", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("collections:refresh")))
}

func TestCollectors(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetWarmed("devices", 42)
	m.AddPurged(3)
	m.AddPurged(0)

	assert.Equal(t, 42.0, testutil.ToFloat64(m.warmed.WithLabelValues("devices")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.purged))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.SetWarmed("devices", 1)
	m.AddPurged(1)
	assert.NoError(t, m.Track("alerts:purge").End(nil))
}
