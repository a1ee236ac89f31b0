// Package metrics exposes Prometheus metrics for node invocations.
package metrics

import (
	"net/http"
	"time"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the invocation metrics and their registry.
// A nil Recorder records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
}

// New registers the invocation metrics in a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "node_invocations_total",
				Help: "Total number of node invocations.",
			},
			[]string{"node", "outcome", "error_kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "node_invocation_duration_seconds",
				Help:    "Node invocation latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "node_invocations_in_flight",
			Help: "Node invocations currently running.",
		}),
	}
	r.registry.MustRegister(r.invocations, r.duration, r.inFlight)
	return r
}

// Start marks an invocation as running and returns the function that records its result.
func (r *Recorder) Start(nodeName string) func(node.Outcome) {
	if r == nil {
		return func(node.Outcome) {}
	}
	r.inFlight.Inc()
	start := time.Now()
	return func(out node.Outcome) {
		r.inFlight.Dec()
		r.duration.WithLabelValues(nodeName).Observe(time.Since(start).Seconds())
		result := "success"
		if !out.Success {
			result = "failure"
		}
		r.invocations.WithLabelValues(nodeName, result, string(out.Kind)).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

