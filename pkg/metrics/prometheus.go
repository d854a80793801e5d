// Package metrics provides Prometheus metrics for the elrobot services.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics of a role process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  atomic.Int64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ingestion - what arrives from the bus
	samplesReceived *prometheus.CounterVec
	samplesDropped  *prometheus.CounterVec
	decodeErrors    *prometheus.CounterVec
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	storeEntries    *prometheus.GaugeVec

	// Control loop
	ticks             prometheus.Counter
	tickLatency       prometheus.Histogram
	framesSkipped     prometheus.Counter
	facesDetected     prometheus.Counter
	recognitions      *prometheus.CounterVec
	decisions         *prometheus.CounterVec
	commandsPublished prometheus.Counter
	publishErrors     *prometheus.CounterVec
	adapterLatency    *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
	processCPUPercent    prometheus.Gauge
	processRSS           prometheus.Gauge
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
		namespace:        "elrobot",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counterVec := func(name, help string, keys ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, keys)
	}
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}

	// Ingestion
	m.samplesReceived = counterVec("samples_received_total", "Inbound bus samples by kind", "kind")
	m.samplesDropped = counterVec("samples_dropped_total", "Inbound samples dropped before reaching the store", "reason")
	m.decodeErrors = counterVec("decode_errors_total", "Malformed inbound payloads by kind", "kind")
	m.queueSize = gauge("ingest_queue_size", "Samples waiting to be applied to the store")
	m.queueCapacity = gauge("ingest_queue_capacity", "Capacity of the ingest queue")
	m.storeEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("store_entries"),
		Help: "Entries held by the ingestion store by kind", ConstLabels: labels,
	}, []string{"kind"})

	// Control loop
	m.ticks = counter("ticks_total", "Control loop ticks")
	m.tickLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("tick_duration_milliseconds"),
		Help: "Duration of one control loop tick in milliseconds", Buckets: m.histogramBuckets, ConstLabels: labels,
	})
	m.framesSkipped = counter("frames_skipped_total", "Frames skipped because they could not be decoded or processed")
	m.facesDetected = counter("faces_detected_total", "Faces found by the detection adapter")
	m.recognitions = counterVec("recognitions_total", "Recognition attempts by outcome", "outcome")
	m.decisions = counterVec("decisions_total", "Decisions by source branch", "source")
	m.commandsPublished = counter("commands_published_total", "Velocity commands published")
	m.publishErrors = counterVec("publish_errors_total", "Failed publications by payload kind", "kind")
	m.adapterLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("adapter_duration_milliseconds"),
		Help: "Latency of external detector/encoder calls", Buckets: m.histogramBuckets, ConstLabels: labels,
	}, []string{"adapter"})

	// HTTP
	m.httpRequests = counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = counterVec("http_errors_total", "HTTP error responses by endpoint and type", "endpoint", "method", "error_type")

	// System
	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Current memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutines", "Current number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("system_gc_pause_time_milliseconds"),
		Help: "GC pause time in milliseconds", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
	m.processCPUPercent = gauge("process_cpu_percent", "Process CPU usage percent")
	m.processRSS = gauge("process_rss_bytes", "Process resident set size in bytes")
}

// RecordSample counts an inbound sample.
func RecordSample(kind string) {
	if !enabled() {
		return
	}
	globalManager.samplesReceived.WithLabelValues(kind).Inc()
}

// RecordSampleDropped counts a sample that never reached the store.
func RecordSampleDropped(reason string) {
	if !enabled() {
		return
	}
	globalManager.samplesDropped.WithLabelValues(reason).Inc()
}

// RecordDecodeError counts a malformed payload.
func RecordDecodeError(kind string) {
	if !enabled() {
		return
	}
	globalManager.decodeErrors.WithLabelValues(kind).Inc()
}

// UpdateQueueSize sets the current ingest queue length.
func UpdateQueueSize(size int) {
	if !enabled() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the ingest queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !enabled() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateStoreEntries sets the number of store entries of a kind.
func UpdateStoreEntries(kind string, count int) {
	if !enabled() {
		return
	}
	globalManager.storeEntries.WithLabelValues(kind).Set(float64(count))
}

// RecordTick counts a tick and its latency.
func RecordTick(latencyMs float64) {
	if !enabled() {
		return
	}
	globalManager.ticks.Inc()
	globalManager.tickLatency.Observe(latencyMs)
}

// RecordFrameSkipped counts a frame that could not be processed.
func RecordFrameSkipped() {
	if !enabled() {
		return
	}
	globalManager.framesSkipped.Inc()
}

// RecordFacesDetected adds detected faces.
func RecordFacesDetected(n int) {
	if !enabled() {
		return
	}
	globalManager.facesDetected.Add(float64(n))
}

// RecordRecognition counts a recognition outcome.
func RecordRecognition(outcome string) {
	if !enabled() {
		return
	}
	globalManager.recognitions.WithLabelValues(outcome).Inc()
}

// RecordDecision counts a decision by source branch.
func RecordDecision(source string) {
	if !enabled() {
		return
	}
	globalManager.decisions.WithLabelValues(source).Inc()
}

// RecordCommandPublished counts a published velocity command.
func RecordCommandPublished() {
	if !enabled() {
		return
	}
	globalManager.commandsPublished.Inc()
}

// RecordPublishError counts a failed publication.
func RecordPublishError(kind string) {
	if !enabled() {
		return
	}
	globalManager.publishErrors.WithLabelValues(kind).Inc()
}

// RecordAdapterLatency records an external detector/encoder call.
func RecordAdapterLatency(adapter string, latencyMs float64) {
	if !enabled() {
		return
	}
	globalManager.adapterLatency.WithLabelValues(adapter).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !enabled() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !enabled() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	if !enabled() {
		return
	}
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the current memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !enabled() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if !enabled() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !enabled() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// UpdateProcessStats sets process CPU percent and resident memory.
func UpdateProcessStats(cpuPercent float64, rss uint64) {
	if !enabled() {
		return
	}
	globalManager.processCPUPercent.Set(cpuPercent)
	globalManager.processRSS.Set(float64(rss))
}

// Configure applies runtime options to the package-level manager. Only
// WithMetricsEnabled and WithRefreshInterval matter here: metric names are
// fixed once registered.
func Configure(opts ...Option) {
	for _, opt := range opts {
		opt(globalManager)
	}
}

// Enabled reports whether the package-level recorders are on.
func Enabled() bool { return enabled() }

// RefreshInterval returns how often polled gauges should be refreshed.
func RefreshInterval() time.Duration {
	return time.Duration(globalManager.refreshInterval.Load())
}

func enabled() bool { return globalManager.enabled.Load() }

// GetRegistry returns the registry backing the package-level metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
