// Package metrics records query counts, latencies and reconstruction work
// as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeMissingTimestep = "missing_timestep"
	OutcomeError           = "error"
	OutcomeInvalid         = "invalid"
)

// Collector holds the engine metrics. A nil *Collector records nothing.
type Collector struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	modes    *prometheus.CounterVec
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "happi",
			Name:      "queries_total",
			Help:      "Data queries by diagnostic and outcome.",
		}, []string{"diagnostic", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "happi",
			Name:      "query_duration_seconds",
			Help:      "Duration of successful data queries.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"diagnostic", "geometry"}),
		modes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "happi",
			Name:      "modes_synthesized_total",
			Help:      "Azimuthal modes summed during cylindrical reconstructions.",
		}, []string{"geometry"}),
	}
}

// ObserveQuery counts one query and, when it succeeded, its duration.
func (c *Collector) ObserveQuery(diagnostic, geometry, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.queries.WithLabelValues(diagnostic, outcome).Inc()
	if outcome == OutcomeOK {
		c.duration.WithLabelValues(diagnostic, geometry).Observe(d.Seconds())
	}
}

// ModesSynthesized adds n synthesized modes.
func (c *Collector) ModesSynthesized(geometry string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.modes.WithLabelValues(geometry).Add(float64(n))
}
