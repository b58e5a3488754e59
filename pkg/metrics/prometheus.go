// Package metrics provides Prometheus metrics for the CanMNT war room service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Upstream polling
	upstreamFetches      *prometheus.CounterVec
	upstreamFetchLatency *prometheus.HistogramVec
	refresherStale       *prometheus.GaugeVec
	refresherLastSuccess *prometheus.GaugeVec

	// Roster board
	tierSize *prometheus.GaugeVec

	// Ledger pipeline
	ledgerEntries      prometheus.Gauge
	ledgerAppended     prometheus.Counter
	ledgerDuplicates   prometheus.Counter
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge

	// Broadcast
	streamSubscribers prometheus.Gauge
	broadcasts        prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // custom registry keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "canmnt",
		subsystem:        "warroom",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.upstreamFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("upstream_fetches_total"),
		Help: "Upstream fetch attempts by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	m.upstreamFetchLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("upstream_fetch_duration_milliseconds"),
		Help:    "Upstream fetch latency in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint"})

	m.refresherStale = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("refresher_stale"),
		Help: "1 when the refresher is serving last-good or fallback data",
	}, []string{"refresher"})

	m.refresherLastSuccess = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("refresher_last_success_unixtime"),
		Help: "Unix time of the last successful upstream fetch",
	}, []string{"refresher"})

	m.tierSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("roster_tier_players"),
		Help: "Number of players currently in each roster tier",
	}, []string{"tier"})

	m.ledgerEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("ledger_entries"),
		Help: "Entries currently held by the ledger",
	})

	m.ledgerAppended = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("ledger_appended_total"),
		Help: "Entries appended to the ledger",
	})

	m.ledgerDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("ledger_duplicates_total"),
		Help: "Live events skipped because they were already recorded",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("ledger_queue_size"),
		Help: "Entries waiting in the ledger queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("ledger_queue_capacity"),
		Help: "Capacity of the ledger queue",
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("ledger_queue_enqueue_errors_total"),
		Help: "Rejected ledger enqueues by reason",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("ledger_worker_count"),
		Help: "Ledger workers running",
	})

	m.streamSubscribers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("stream_subscribers"),
		Help: "Connected live-pulse stream subscribers",
	})

	m.broadcasts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("broadcasts_total"),
		Help: "Live-pulse updates published to subscribers",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("http_requests_total"),
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("http_errors_total"),
		Help: "HTTP error responses by endpoint and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})
}

// RecordUpstreamFetch records one upstream attempt and its latency.
func RecordUpstreamFetch(endpoint, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamFetches.WithLabelValues(endpoint, outcome).Inc()
	globalManager.upstreamFetchLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// UpdateRefresherState publishes the freshness of a refresher.
func UpdateRefresherState(refresher string, stale bool, lastSuccess time.Time) {
	v := 0.0
	if stale {
		v = 1
	}
	globalManager.refresherStale.WithLabelValues(refresher).Set(v)
	if !lastSuccess.IsZero() {
		globalManager.refresherLastSuccess.WithLabelValues(refresher).Set(float64(lastSuccess.Unix()))
	}
}

// UpdateTierSize sets the player count of a roster tier.
func UpdateTierSize(tier string, count int) {
	globalManager.tierSize.WithLabelValues(tier).Set(float64(count))
}

// UpdateLedgerEntries sets the current ledger size.
func UpdateLedgerEntries(count int) {
	globalManager.ledgerEntries.Set(float64(count))
}

// RecordLedgerAppend increments the appended-entries counter.
func RecordLedgerAppend() {
	globalManager.ledgerAppended.Inc()
}

// RecordLedgerDuplicate increments the duplicate counter.
func RecordLedgerDuplicate() {
	globalManager.ledgerDuplicates.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of ledger workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddStreamSubscribers adjusts the stream subscriber gauge by delta.
func AddStreamSubscribers(delta int) {
	globalManager.streamSubscribers.Add(float64(delta))
}

// RecordBroadcast counts a published live-pulse update.
func RecordBroadcast() {
	globalManager.broadcasts.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
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
