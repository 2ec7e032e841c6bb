// Package metrics exposes profiling outcomes as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dataiq"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the collectors registered by New. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	HealthScore     *prometheus.GaugeVec
	ProfilesTotal   *prometheus.CounterVec
	ProfileDuration prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HealthScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_score",
			Help:      "Latest health score per dataset (0-100).",
		}, []string{"dataset"}),
		ProfilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_total",
			Help:      "Profiling runs by outcome.",
		}, []string{"status"}),
		ProfileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "profile_duration_seconds",
			Help:      "Time spent profiling and scoring one dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{m.HealthScore, m.ProfilesTotal, m.ProfileDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveProfile records a successful run.
func (m *Metrics) ObserveProfile(dataset string, score float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HealthScore.WithLabelValues(dataset).Set(score)
	m.ProfilesTotal.WithLabelValues(StatusSuccess).Inc()
	m.ProfileDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveFailure() {
	if m == nil {
		return
	}
	m.ProfilesTotal.WithLabelValues(StatusError).Inc()
}
