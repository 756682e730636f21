package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder on a private Prometheus registry.
type PrometheusRecorder struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	hashDuration  prometheus.Histogram
	rateLimited   *prometheus.CounterVec
}

// NewPrometheus creates a recorder with Go and process collectors registered.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p := &PrometheusRecorder{
		registry: registry,
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdash_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"status"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdash_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"status"},
		),
		hashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bizdash_password_hash_duration_seconds",
			Help:    "Time spent hashing or verifying passwords",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizdash_rate_limited_total",
				Help: "Requests rejected by the rate limiter by route",
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(p.registrations, p.logins, p.hashDuration, p.rateLimited)
	return p
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// IncRegistration counts a registration attempt by outcome.
func (p *PrometheusRecorder) IncRegistration(status string) {
	p.registrations.WithLabelValues(status).Inc()
}

// IncLogin counts a login attempt by outcome.
func (p *PrometheusRecorder) IncLogin(status string) {
	p.logins.WithLabelValues(status).Inc()
}

// ObserveHashDuration records time spent hashing or verifying a password.
func (p *PrometheusRecorder) ObserveHashDuration(duration time.Duration) {
	p.hashDuration.Observe(duration.Seconds())
}

// IncRateLimited counts a rejected request by route.
func (p *PrometheusRecorder) IncRateLimited(route string) {
	p.rateLimited.WithLabelValues(route).Inc()
}
