package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the counters exported on /metrics.
type Metrics struct {
	RelayRequests *prometheus.CounterVec
	RelayDuration prometheus.Histogram
	Submissions   *prometheus.CounterVec
	RateLimited   prometheus.Counter
	registry      *prometheus.Registry
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		RelayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cv_web",
			Name:      "relay_requests_total",
			Help:      "Proxy relay requests by outcome.",
		}, []string{"outcome"}),
		RelayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cv_web",
			Name:      "relay_duration_seconds",
			Help:      "Time spent waiting for the analysis backend.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cv_web",
			Name:      "submissions_total",
			Help:      "Intake form submissions by phase reached.",
		}, []string{"phase"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cv_web",
			Name:      "rate_limited_total",
			Help:      "Submissions and proxy requests refused by the rate limiter.",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.RelayRequests,
		m.RelayDuration,
		m.Submissions,
		m.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
