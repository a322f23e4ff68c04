// Package metrics provides Prometheus metrics for the balance survey service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets covers sub-millisecond store calls up to scorer timeouts (ms).
var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // shared bucket layout

// Manager owns every collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Submission pipeline
	submissions       *prometheus.CounterVec
	scoringLatency    prometheus.Histogram
	scoringErrors     *prometheus.CounterVec
	persistenceErrors prometheus.Counter
	recordsAppended   prometheus.Counter
	recordsTotal      prometheus.Gauge

	// Collectors
	activeSessions  prometheus.Gauge
	answersSelected prometheus.Counter
	invalidChoices  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Batch scoring
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueueErrors      prometheus.Counter
	batchRows               *prometheus.CounterVec
	workerProcessingLatency prometheus.Histogram

	// Notifications
	notifications *prometheus.CounterVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry avoids the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "balance",
		subsystem:        "survey",
		histogramBuckets: latencyBuckets,
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
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(m.counterOpts("submissions_total",
		"Completed questionnaire submissions by outcome"), []string{"flow", "outcome"})
	m.scoringLatency = auto.NewHistogram(m.histogramOpts("scoring_latency_ms",
		"Round-trip latency of scoring calls in milliseconds"))
	m.scoringErrors = auto.NewCounterVec(m.counterOpts("scoring_errors_total",
		"Scoring failures by kind"), []string{"kind"})
	m.persistenceErrors = auto.NewCounter(m.counterOpts("persistence_errors_total",
		"Result records that could not be written after a successful score"))
	m.recordsAppended = auto.NewCounter(m.counterOpts("records_appended_total",
		"Result records written to the store"))
	m.recordsTotal = auto.NewGauge(m.gaugeOpts("records",
		"Result records currently held by the store"))

	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions",
		"Paginated collector sessions held in memory"))
	m.answersSelected = auto.NewCounter(m.counterOpts("answers_selected_total",
		"Accepted answer selections"))
	m.invalidChoices = auto.NewCounter(m.counterOpts("invalid_choices_total",
		"Answer selections rejected because the value is not an allowed choice"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_ms",
		"HTTP request latency in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Batch rows waiting to be scored"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Capacity of the batch scoring queue"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Batch rows rejected by the queue"))
	m.batchRows = auto.NewCounterVec(m.counterOpts("batch_rows_total",
		"Batch rows processed by status"), []string{"status"})
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_ms",
		"Per-row processing latency of batch workers in milliseconds"))

	m.notifications = auto.NewCounterVec(m.counterOpts("notifications_total",
		"Result notifications by status"), []string{"status"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines",
		"Number of goroutines"))
}

// RecordSubmission counts a finished submission. flow is "paginated", "form"
// or "cli"; outcome is "scored", "submission_failed", "persistence_failed" or
// "duplicate".
func RecordSubmission(flow, outcome string) {
	globalManager.submissions.WithLabelValues(flow, outcome).Inc()
}

// RecordScoringLatency records scoring round-trip latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringError counts a failed scoring call.
func RecordScoringError(kind string) {
	globalManager.scoringErrors.WithLabelValues(kind).Inc()
}

// RecordPersistenceError counts a failed record write.
func RecordPersistenceError() {
	globalManager.persistenceErrors.Inc()
}

// RecordRecordAppended counts a written record.
func RecordRecordAppended() {
	globalManager.recordsAppended.Inc()
}

// UpdateRecordsTotal sets the number of stored records.
func UpdateRecordsTotal(count int) {
	globalManager.recordsTotal.Set(float64(count))
}

// UpdateActiveSessions sets the number of in-memory collector sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordAnswerSelected counts an accepted selection.
func RecordAnswerSelected() {
	globalManager.answersSelected.Inc()
}

// RecordInvalidChoice counts a rejected selection.
func RecordInvalidChoice() {
	globalManager.invalidChoices.Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueSize sets the batch queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the batch queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordBatchRow counts a processed batch row ("scored" or "failed").
func RecordBatchRow(status string) {
	globalManager.batchRows.WithLabelValues(status).Inc()
}

// RecordWorkerProcessingLatency records per-row worker latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordNotification counts a result notification ("published" or "failed").
func RecordNotification(status string) {
	globalManager.notifications.WithLabelValues(status).Inc()
}

// RecordErrorByComponent counts an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
