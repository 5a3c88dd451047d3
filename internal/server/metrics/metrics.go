// Package metrics exposes Prometheus counters for recognition attempts
// and ballot submissions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facevote"

type Metrics struct {
	registry *prometheus.Registry

	recognitionAttempts *prometheus.CounterVec
	recognitionDuration prometheus.Histogram
	rateLimited         prometheus.Counter
	ballots             *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry. Go runtime and
// process collectors are registered alongside.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recognitionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recognition",
			Name:      "attempts_total",
			Help:      "Face recognition invocations by outcome kind.",
		}, []string{"kind"}),
		recognitionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recognition",
			Name:      "duration_seconds",
			Help:      "Wall-clock time of one recognizer process.",
			Buckets:   []float64{1, 2.5, 5, 10, 15, 20, 30, 45},
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recognition",
			Name:      "rate_limited_total",
			Help:      "Recognition requests rejected by the attempt limiter.",
		}),
		ballots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ballots",
			Name:      "submitted_total",
			Help:      "Ballot submissions by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.recognitionAttempts,
		m.recognitionDuration,
		m.rateLimited,
		m.ballots,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRecognition(kind string, elapsed time.Duration) {
	m.recognitionAttempts.WithLabelValues(kind).Inc()
	m.recognitionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncRateLimited() {
	m.rateLimited.Inc()
}

// IncBallot counts one submission; outcome is "accepted", "rejected",
// "ineligible", "duplicate" or "error".
func (m *Metrics) IncBallot(outcome string) {
	m.ballots.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
