// Package metrics provides Prometheus metrics for the tauskim pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a skim process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Event flow
	eventsRead    *prometheus.CounterVec
	eventsPassed  *prometheus.CounterVec
	eventsWritten *prometheus.CounterVec

	// Sample bookkeeping
	samplesProcessed *prometheus.CounterVec
	sampleDuration   prometheus.Histogram

	// Queue
	queueSize          *prometheus.GaugeVec
	queueCapacity      *prometheus.GaugeVec
	queueUtilization   *prometheus.GaugeVec
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             *prometheus.GaugeVec
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP exposition
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

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
		namespace:        "tauskim",
		subsystem:        "skim",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.eventsRead = m.counterVec("events_read_total",
		"Total number of events read from input samples", "sample")
	m.eventsPassed = m.counterVec("events_passed_total",
		"Total number of events surviving each pipeline stage", "stage")
	m.eventsWritten = m.counterVec("events_written_total",
		"Total number of events written to skim outputs", "sample")

	m.samplesProcessed = m.counterVec("samples_processed_total",
		"Total number of samples processed by final status", "status")
	m.sampleDuration = m.histogram("sample_duration_seconds",
		"Wall time spent skimming one sample",
		[]float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600})

	m.queueSize = m.gaugeVec("queue_size", "Current number of batches waiting in the queue", "sample")
	m.queueCapacity = m.gaugeVec("queue_capacity", "Maximum number of batches the queue holds", "sample")
	m.queueUtilization = m.gaugeVec("queue_utilization_ratio", "Queue size divided by capacity", "sample")
	m.queueEnqueueTotal = m.counter("queue_enqueue_total", "Total number of batches enqueued")
	m.queueDequeueTotal = m.counter("queue_dequeue_total", "Total number of batches dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueue attempts")

	m.workerCount = m.gaugeVec("worker_count", "Current number of skim workers", "sample")
	m.workerProcessingLatency = m.histogram("worker_batch_latency_milliseconds",
		"Time spent processing one event batch in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of batches that failed processing")

	m.httpRequests = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordEventsRead adds n to the events read for a sample.
func RecordEventsRead(sample string, n int) {
	globalManager.eventsRead.WithLabelValues(sample).Add(float64(n))
}

// RecordStagePassed adds n to the events surviving a pipeline stage.
func RecordStagePassed(stage string, n int) {
	globalManager.eventsPassed.WithLabelValues(stage).Add(float64(n))
}

// RecordEventsWritten adds n to the events written for a sample.
func RecordEventsWritten(sample string, n int) {
	globalManager.eventsWritten.WithLabelValues(sample).Add(float64(n))
}

// RecordSampleProcessed counts a finished sample by status ("ok", "failed").
func RecordSampleProcessed(status string) {
	globalManager.samplesProcessed.WithLabelValues(status).Inc()
}

// RecordSampleDuration records the wall time of one sample in seconds.
func RecordSampleDuration(seconds float64) {
	globalManager.sampleDuration.Observe(seconds)
}

// UpdateQueueSize sets the current queue size of a sample.
func UpdateQueueSize(sample string, size int) {
	globalManager.queueSize.WithLabelValues(sample).Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity of a sample.
func UpdateQueueCapacity(sample string, capacity int) {
	globalManager.queueCapacity.WithLabelValues(sample).Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio of a sample.
func UpdateQueueUtilization(sample string, utilization float64) {
	globalManager.queueUtilization.WithLabelValues(sample).Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the number of workers running for a sample.
func UpdateWorkerCount(sample string, count int) {
	globalManager.workerCount.WithLabelValues(sample).Set(float64(count))
}

// RecordWorkerProcessingLatency records batch processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
