// Package metrics exposes Prometheus instruments for the aggregation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bondmaster"

// Metrics holds every instrument on a private registry.
// All methods are no-ops on a nil *Metrics.
// ⭐ SSOT: Prometheus 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	aggregations        *prometheus.CounterVec
	aggregationDuration prometheus.Histogram
	pagesFetched        prometheus.Counter
	bondsReturned       prometheus.Gauge
	enrichmentDegraded  prometheus.Counter
	httpRequests        *prometheus.CounterVec
	upstreamRequests    *prometheus.CounterVec
	upstreamDuration    *prometheus.HistogramVec
	jobRuns             *prometheus.CounterVec
}

// New registers all instruments plus the Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Aggregation runs by outcome (success or error kind).",
		}, []string{"outcome"}),
		aggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "End-to-end aggregation latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_pages_fetched_total",
			Help:      "Listing pages fetched from the upstream source.",
		}),
		bondsReturned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bonds_last_aggregation",
			Help:      "Bond count of the last successful aggregation.",
		}),
		enrichmentDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_degraded_total",
			Help:      "Aggregations that ran without the redeem overlay.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Inbound HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound requests by upstream and final status (error on transport failure).",
		}, []string{"upstream", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound request latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"upstream"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.aggregations,
		m.aggregationDuration,
		m.pagesFetched,
		m.bondsReturned,
		m.enrichmentDegraded,
		m.httpRequests,
		m.upstreamRequests,
		m.upstreamDuration,
		m.jobRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAggregation records one finished aggregation. outcome is "success" or an error kind.
func (m *Metrics) ObserveAggregation(outcome string, d time.Duration, pages, bonds int) {
	if m == nil {
		return
	}
	m.aggregations.WithLabelValues(outcome).Inc()
	m.aggregationDuration.Observe(d.Seconds())
	m.pagesFetched.Add(float64(pages))
	if outcome == "success" {
		m.bondsReturned.Set(float64(bonds))
	}
}

// EnrichmentDegraded counts an aggregation that lost its redeem overlay
func (m *Metrics) EnrichmentDegraded() {
	if m == nil {
		return
	}
	m.enrichmentDegraded.Inc()
}

// ObserveHTTP counts one inbound request
func (m *Metrics) ObserveHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ObserveUpstream records one outbound exchange; status 0 means transport failure.
// Its signature matches httputil.ObserveFunc.
func (m *Metrics) ObserveUpstream(upstream string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamRequests.WithLabelValues(upstream, label).Inc()
	m.upstreamDuration.WithLabelValues(upstream).Observe(d.Seconds())
}

// ObserveJob counts one scheduled job run
func (m *Metrics) ObserveJob(job string, success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}
