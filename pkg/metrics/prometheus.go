// Package metrics provides Prometheus metrics for the vertex ntuple service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generator-vertex collection labels, in the order the builder emits them.
const (
	CollectionAll                  = "all"
	CollectionSimMatched           = "sim_matched"
	CollectionNoNeutrino           = "no_neutrino"
	CollectionNoNeutrinoSimMatched = "no_neutrino_sim_matched"
)

// Collections lists the collection labels in builder order.
var Collections = [4]string{ //nolint:gochecknoglobals // fixed label set
	CollectionAll,
	CollectionSimMatched,
	CollectionNoNeutrino,
	CollectionNoNeutrinoSimMatched,
}

// Manager owns all Prometheus metrics of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis
	eventsAnalyzed       prometheus.Counter
	eventsDuplicate      prometheus.Counter
	eventsRejected       *prometheus.CounterVec
	missingPrimaryVertex prometheus.Counter
	genVerticesPerEvent  *prometheus.HistogramVec
	jetsSelected         prometheus.Counter
	jetsGenMatched       prometheus.Counter
	analysisLatency      prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount       prometheus.Gauge
	workerActiveCount prometheus.Gauge
	workerErrors      prometheus.Counter

	// Summary store
	storedEvents       prometheus.Gauge
	storeRecordLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vtx",
		subsystem:        "ntuples",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.eventsAnalyzed = auto.NewCounter(m.counter("events_analyzed_total", "Events run through both builders"))
	m.eventsDuplicate = auto.NewCounter(m.counter("events_duplicate_total", "Events rejected because their key was already accepted"))
	m.eventsRejected = auto.NewCounterVec(m.counter("events_rejected_total", "Events refused at ingest"), []string{"reason"})
	m.missingPrimaryVertex = auto.NewCounter(m.counter("missing_primary_vertex_total", "Events analyzed without a primary vertex"))
	m.genVerticesPerEvent = auto.NewHistogramVec(
		m.histogram("gen_vertices_per_event", "Generator vertices per event by collection", prometheus.LinearBuckets(0, 1, 10)),
		[]string{"collection"},
	)
	m.jetsSelected = auto.NewCounter(m.counter("jets_selected_total", "Reconstructed jets passing the kinematic selection"))
	m.jetsGenMatched = auto.NewCounter(m.counter("jets_gen_matched_total", "Selected jets matched to a generator jet"))
	m.analysisLatency = auto.NewHistogram(m.histogram("analysis_latency_milliseconds", "Time to analyze one event in milliseconds", m.histogramBuckets))

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Events waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum number of queued events"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counter("queue_enqueued_total", "Events accepted by the queue"))
	m.queueDequeued = auto.NewCounter(m.counter("queue_dequeued_total", "Events handed to workers"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counter("queue_enqueue_errors_total", "Events the queue refused"), []string{"reason"})

	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Workers in the pool"))
	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Workers currently analyzing an event"))
	m.workerErrors = auto.NewCounter(m.counter("worker_errors_total", "Events a worker could not analyze"))

	m.storedEvents = auto.NewGauge(m.gauge("stored_events", "Event summaries held by the store"))
	m.storeRecordLatency = auto.NewHistogram(m.histogram("store_record_latency_milliseconds", "Time to record one summary in milliseconds", m.histogramBuckets))

	m.httpRequests = auto.NewCounterVec(
		m.counter("http_requests_total", "HTTP requests by endpoint, method and status code"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(m.counter("errors_total", "Errors by component and type"), []string{"component", "type"})
}

// RecordEventAnalyzed increments the analyzed events counter.
func RecordEventAnalyzed() {
	globalManager.eventsAnalyzed.Inc()
}

// RecordEventDuplicate increments the duplicate events counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventRejected counts an event refused at ingest.
func RecordEventRejected(reason string) {
	globalManager.eventsRejected.WithLabelValues(reason).Inc()
}

// RecordMissingPrimaryVertex counts an event whose vertex builder could not run.
func RecordMissingPrimaryVertex() {
	globalManager.missingPrimaryVertex.Inc()
}

// ObserveVertexCounts records the four collection sizes of one event, in
// the order of Collections.
func ObserveVertexCounts(counts [4]int) {
	for i, label := range Collections {
		globalManager.genVerticesPerEvent.WithLabelValues(label).Observe(float64(counts[i]))
	}
}

// RecordJets adds the selected and gen-matched jet counts of one event.
func RecordJets(selected, matched int) {
	globalManager.jetsSelected.Add(float64(selected))
	globalManager.jetsGenMatched.Add(float64(matched))
}

// RecordAnalysisLatency records analysis latency in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	globalManager.analysisLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a refused enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of workers in the pool.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateStoredEvents sets the number of stored summaries.
func UpdateStoredEvents(count int) {
	globalManager.storedEvents.Set(float64(count))
}

// RecordStoreLatency records summary store latency in milliseconds.
func RecordStoreLatency(latencyMs float64) {
	globalManager.storeRecordLatency.Observe(latencyMs)
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
