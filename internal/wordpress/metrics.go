package wordpress

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the orchestrator's Prometheus collectors. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	publishTotal  *prometheus.CounterVec
	authAttempts  *prometheus.CounterVec
	stepDurations *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors. A nil registerer skips
// registration, which keeps tests independent of the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "publish_total",
			Help:      "Publish runs by result.",
		}, []string{"result"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "auth_attempts_total",
			Help:      "Credential attempts against WordPress sites by credential kind and result.",
		}, []string{"kind", "result"}),
		stepDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "courier",
			Name:      "step_duration_seconds",
			Help:      "Duration of publish pipeline steps.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"step"}),
	}
	if reg != nil {
		reg.MustRegister(m.publishTotal, m.authAttempts, m.stepDurations)
	}
	return m
}

func (m *Metrics) publish(result string) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) authAttempt(kind CredentialKind, result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) observeStep(step StepID, started time.Time) {
	if m == nil {
		return
	}
	m.stepDurations.WithLabelValues(string(step)).Observe(time.Since(started).Seconds())
}
