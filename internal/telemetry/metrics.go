package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	RateLimitRejections *prometheus.CounterVec

	AuthzDecisions    *prometheus.CounterVec
	AuthzCacheLookups *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.counterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.histogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimitRejections: factory.counterVec(prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of rate limit rejections",
		}, []string{"organization_id"}),
		AuthzDecisions: factory.counterVec(prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions by permission domain and outcome",
		}, []string{"domain", "outcome"}),
		AuthzCacheLookups: factory.counterVec(prometheus.CounterOpts{
			Name: "authz_cache_lookups_total",
			Help: "Total number of authorization decision cache lookups",
		}, []string{"result"}),
	}
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDecision implements the authorization engine's metrics hook.
func (m *Metrics) RecordDecision(domain string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.AuthzDecisions.WithLabelValues(domain, outcome).Inc()
}

// RecordCacheLookup implements the authorization engine's metrics hook.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.AuthzCacheLookups.WithLabelValues(result).Inc()
}

// RecordRequest records one completed HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordRateLimitRejection records one rejected request for an organization.
func (m *Metrics) RecordRateLimitRejection(organizationID string) {
	m.RateLimitRejections.WithLabelValues(organizationID).Inc()
}

// promauto-style helper bound to one registry.
type factory struct {
	registry *prometheus.Registry
}

func promauto(registry *prometheus.Registry) factory {
	return factory{registry: registry}
}

func (f factory) counterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(opts, labels)
	f.registry.MustRegister(vec)
	return vec
}

func (f factory) histogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(opts, labels)
	f.registry.MustRegister(vec)
	return vec
}
