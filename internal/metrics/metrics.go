// Package metrics exposes Prometheus counters and histograms for prompt
// handling. Each Metrics value owns its registry so tests and multiple
// servers in one process never collide.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studiodesk"

// Metrics records prompt outcomes and latencies.
type Metrics struct {
	registry *prometheus.Registry
	prompts  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// New creates Metrics on a fresh registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		prompts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompts_total",
				Help:      "Total number of prompts handled, by agent, intent and outcome",
			},
			[]string{"agent", "intent", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prompt_duration_milliseconds",
				Help:      "Prompt handling duration in milliseconds",
				Buckets:   []float64{1, 5, 10, 50, 100, 200, 500, 1000, 5000},
			},
			[]string{"agent"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests, by route and status code",
			},
			[]string{"route", "code"},
		),
	}
	m.registry.MustRegister(
		m.prompts,
		m.latency,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrompt records one handled prompt. An empty intent is reported
// as "none".
func (m *Metrics) ObservePrompt(agent, intent, outcome string, elapsed time.Duration) {
	if intent == "" {
		intent = "none"
	}
	m.prompts.WithLabelValues(agent, intent, outcome).Inc()
	m.latency.WithLabelValues(agent).Observe(float64(elapsed) / float64(time.Millisecond))
}

// ObserveRequest records one HTTP response.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
