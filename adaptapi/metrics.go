package adaptapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded per pipeline invocation.
const (
	OutcomePassthrough   = "passthrough"
	OutcomeAdapted       = "adapted"
	OutcomeRequestError  = "request_error"
	OutcomeResponseError = "response_error"
	OutcomeCanceled      = "canceled"
)

// Metrics holds the Prometheus collectors updated by the pipeline. A nil
// *Metrics records nothing.
type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	transformDuration *prometheus.HistogramVec
	bodyBytes         *prometheus.HistogramVec
}

func newMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "adaptapi",
				Subsystem: "pipeline",
				Name:      "requests_total",
				Help:      "Requests seen by the version adaptation pipeline.",
			},
			[]string{"version", "outcome"},
		),
		transformDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "adaptapi",
				Subsystem: "pipeline",
				Name:      "transform_duration_seconds",
				Help:      "Time spent decoding, transforming and encoding one body.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"version", "direction"},
		),
		bodyBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "adaptapi",
				Subsystem: "pipeline",
				Name:      "rewritten_body_bytes",
				Help:      "Size of bodies after rewriting.",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"direction"},
		),
	}
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := newMetrics()
	if reg == nil {
		return m, nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requestsTotal, m.transformDuration, m.bodyBytes}
}

func (m *Metrics) observeRequest(version, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(version, outcome).Inc()
}

func (m *Metrics) observeTransform(version string, dir Direction, elapsed time.Duration, size int) {
	if m == nil {
		return
	}
	m.transformDuration.WithLabelValues(version, dir.String()).Observe(elapsed.Seconds())
	m.bodyBytes.WithLabelValues(dir.String()).Observe(float64(size))
}
