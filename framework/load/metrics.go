package load

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes live load-run figures in Prometheus form. Each Metrics has its own
// registry, so several runs in one process never collide on registration.
type Metrics struct {
	Registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeVUs       *prometheus.GaugeVec
	targetVUs       *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "petstore_load_requests_total",
				Help: "Total number of requests sent by virtual users",
			},
			[]string{"plan", "action", "status", "result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "petstore_load_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"plan", "action"},
		),
		activeVUs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "petstore_load_active_vus",
				Help: "Number of running virtual users",
			},
			[]string{"plan"},
		),
		targetVUs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "petstore_load_target_vus",
				Help: "Number of virtual users the ramp currently calls for",
			},
			[]string{"plan"},
		),
	}
	m.Registry.MustRegister(m.requestsTotal, m.requestDuration, m.activeVUs, m.targetVUs)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(plan string, s Sample) {
	if m == nil {
		return
	}
	result := "passed"
	status := strconv.Itoa(s.Status)
	switch {
	case s.Err != nil:
		result, status = "error", "none"
	case !s.Passed:
		result = "failed"
	}
	m.requestsTotal.WithLabelValues(plan, s.Action, status, result).Inc()
	m.requestDuration.WithLabelValues(plan, s.Action).Observe(s.Latency.Seconds())
}

func (m *Metrics) setVUs(plan string, active, target int) {
	if m == nil {
		return
	}
	m.activeVUs.WithLabelValues(plan).Set(float64(active))
	m.targetVUs.WithLabelValues(plan).Set(float64(target))
}
