package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveProfile("orders", 91.5, 20*time.Millisecond)
	m.ObserveProfile("orders", 88, 10*time.Millisecond)
	m.ObserveFailure()

	assert.Equal(t, 88.0, testutil.ToFloat64(m.HealthScore.WithLabelValues("orders")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProfilesTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProfilesTotal.WithLabelValues(StatusError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProfileDuration))
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProfile("x", 1, time.Second)
		m.ObserveFailure()
	})
}
