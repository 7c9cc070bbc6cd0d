// Package metrics provides Prometheus metrics for the attention service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the attention service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	filteredTotal   *prometheus.CounterVec
	dedupedTotal    prometheus.Counter
	sectionSize     *prometheus.GaugeVec
	cacheLookups    *prometheus.CounterVec
	classifyRuns    prometheus.Counter
	bandSize        *prometheus.GaugeVec
	suppressedTotal *prometheus.CounterVec

	// Collectors
	collectorCandidates *prometheus.CounterVec
	collectorLatency    *prometheus.HistogramVec
	collectorFailures   *prometheus.CounterVec

	// Mutations
	stateWrites *prometheus.CounterVec
	resolutions *prometheus.CounterVec

	// Refresh queue and workers
	refreshEnqueued  *prometheus.CounterVec
	refreshQueueSize prometheus.Gauge
	refreshes        *prometheus.CounterVec
	refreshLatency   prometheus.Histogram
	refreshWorkers   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tesseract",
		subsystem:        "attention",
		histogramBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(m.counterOpts("runs_total", "Aggregation runs by outcome"), []string{"status"})
	m.runDuration = auto.NewHistogram(m.histogramOpts("run_duration_milliseconds", "Aggregation run duration in milliseconds"))
	m.filteredTotal = auto.NewCounterVec(m.counterOpts("filtered_total", "Candidates removed by the state filter"), []string{"reason"})
	m.dedupedTotal = auto.NewCounter(m.counterOpts("deduplicated_total", "Candidates collapsed by source deduplication"))
	m.sectionSize = auto.NewGaugeVec(m.gaugeOpts("section_items", "Items in each section of the last run"), []string{"section"})
	m.cacheLookups = auto.NewCounterVec(m.counterOpts("cache_lookups_total", "Feed cache lookups by result"), []string{"result"})
	m.classifyRuns = auto.NewCounter(m.counterOpts("classify_runs_total", "Band classification runs"))
	m.bandSize = auto.NewGaugeVec(m.gaugeOpts("band_items", "Items in each band of the last classification"), []string{"band"})
	m.suppressedTotal = auto.NewCounterVec(m.counterOpts("suppressed_total", "Attention items suppressed by the classifier"), []string{"reason"})

	m.collectorCandidates = auto.NewCounterVec(m.counterOpts("collector_candidates_total", "Candidates emitted per collector"), []string{"collector"})
	m.collectorLatency = auto.NewHistogramVec(m.histogramOpts("collector_latency_milliseconds", "Collector latency in milliseconds"), []string{"collector"})
	m.collectorFailures = auto.NewCounterVec(m.counterOpts("collector_failures_total", "Collector failures by reason"), []string{"collector", "reason"})

	m.stateWrites = auto.NewCounterVec(m.counterOpts("state_writes_total", "User-state writes by decision and outcome"), []string{"decision", "status"})
	m.resolutions = auto.NewCounterVec(m.counterOpts("resolutions_total", "Resolution actions by action and outcome"), []string{"action", "status"})

	m.refreshEnqueued = auto.NewCounterVec(m.counterOpts("refresh_enqueued_total", "Feed refresh requests by enqueue result"), []string{"result"})
	m.refreshQueueSize = auto.NewGauge(m.gaugeOpts("refresh_queue_size", "Pending feed refresh requests"))
	m.refreshes = auto.NewCounterVec(m.counterOpts("refreshes_total", "Feed refreshes run by the worker pool by outcome"), []string{"status"})
	m.refreshLatency = auto.NewHistogram(m.histogramOpts("refresh_duration_milliseconds", "Feed refresh duration in milliseconds"))
	m.refreshWorkers = auto.NewGauge(m.gaugeOpts("refresh_workers", "Running refresh workers"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordRun counts a finished aggregation run and its duration.
func RecordRun(status string, durationMs float64) {
	globalManager.runsTotal.WithLabelValues(status).Inc()
	globalManager.runDuration.Observe(durationMs)
}

// RecordFiltered counts candidates removed by the state filter.
func RecordFiltered(reason string, n int) {
	if n > 0 {
		globalManager.filteredTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordDeduplicated counts candidates collapsed by deduplication.
func RecordDeduplicated(n int) {
	if n > 0 {
		globalManager.dedupedTotal.Add(float64(n))
	}
}

// UpdateSectionSize sets the size of a feed section.
func UpdateSectionSize(section string, n int) {
	globalManager.sectionSize.WithLabelValues(section).Set(float64(n))
}

// RecordCacheHit counts a feed cache hit.
func RecordCacheHit() {
	globalManager.cacheLookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts a feed cache miss.
func RecordCacheMiss() {
	globalManager.cacheLookups.WithLabelValues("miss").Inc()
}

// RecordClassify counts a classification run.
func RecordClassify() {
	globalManager.classifyRuns.Inc()
}

// UpdateBandSize sets the size of a board band.
func UpdateBandSize(band string, n int) {
	globalManager.bandSize.WithLabelValues(band).Set(float64(n))
}

// RecordSuppressed counts attention items suppressed by the classifier.
func RecordSuppressed(reason string, n int) {
	if n > 0 {
		globalManager.suppressedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordCollectorResult records a successful collector invocation.
func RecordCollectorResult(collector string, candidates int, latencyMs float64) {
	globalManager.collectorCandidates.WithLabelValues(collector).Add(float64(candidates))
	globalManager.collectorLatency.WithLabelValues(collector).Observe(latencyMs)
}

// RecordCollectorFailure records a collector that contributed nothing.
func RecordCollectorFailure(collector, reason string) {
	globalManager.collectorFailures.WithLabelValues(collector, reason).Inc()
}

// RecordStateWrite counts a user-state write.
func RecordStateWrite(decision, status string) {
	globalManager.stateWrites.WithLabelValues(decision, status).Inc()
}

// RecordResolution counts a resolution action.
func RecordResolution(action, status string) {
	globalManager.resolutions.WithLabelValues(action, status).Inc()
}

// RecordRefreshEnqueue counts a refresh request by result: queued, coalesced
// or rejected.
func RecordRefreshEnqueue(result string) {
	globalManager.refreshEnqueued.WithLabelValues(result).Inc()
}

// UpdateRefreshQueueSize sets the number of pending refresh requests.
func UpdateRefreshQueueSize(n int) {
	globalManager.refreshQueueSize.Set(float64(n))
}

// RecordRefresh records a finished feed refresh.
func RecordRefresh(status string, durationMs float64) {
	globalManager.refreshes.WithLabelValues(status).Inc()
	globalManager.refreshLatency.Observe(durationMs)
}

// UpdateRefreshWorkers sets the number of running refresh workers.
func UpdateRefreshWorkers(n int) {
	globalManager.refreshWorkers.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage updates the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry holding the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
