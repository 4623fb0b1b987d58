// Package metrics provides Prometheus metrics for the grapple rating pipeline.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Extraction
	rowsNormalized     *prometheus.CounterVec
	matchesExtracted   *prometheus.CounterVec
	extractionFailures prometheus.Counter
	duplicateDocuments prometheus.Counter

	// Sequencing and rating
	sequencingAmbiguities prometheus.Counter
	matchesRated          *prometheus.CounterVec
	ratingWarnings        *prometheus.CounterVec
	totalWrestlers        prometheus.Gauge

	// Stages
	stageDuration *prometheus.HistogramVec
	queueSize     prometheus.Gauge
	workerCount   prometheus.Gauge
	workerErrors  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "grapple",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one declaration per collector
	auto := promauto.With(m.registry)

	m.rowsNormalized = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_normalized_total",
		Help:      "Source rows emitted by the normalizer, by kind (bout, unparsed, skipped)",
	}, []string{"kind"})

	m.matchesExtracted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_extracted_total",
		Help:      "Matches extracted, by decision type",
	}, []string{"decision"})

	m.extractionFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_failures_total",
		Help:      "Bout rows whose participants or outcome could not be resolved",
	})

	m.duplicateDocuments = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_documents_total",
		Help:      "Round documents dropped because the same event round was already seen",
	})

	m.sequencingAmbiguities = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sequencing_ambiguities_total",
		Help:      "Match pairs tied on every primary ordering key",
	})

	m.matchesRated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_rated_total",
		Help:      "Matches processed by the rating engine, by outcome",
	}, []string{"outcome"})

	m.ratingWarnings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_warnings_total",
		Help:      "Rating data-quality warnings, by kind",
	}, []string{"kind"})

	m.totalWrestlers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "wrestlers",
		Help:      "Wrestlers present in the rating state",
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_milliseconds",
		Help:      "Duration of each pipeline stage in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Round documents waiting for a worker",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Running extraction workers",
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Documents a worker failed to process",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordRowNormalized increments the normalized row counter for kind.
func RecordRowNormalized(kind string) {
	globalManager.rowsNormalized.WithLabelValues(kind).Inc()
}

// RecordMatchExtracted increments the extracted match counter for decision.
func RecordMatchExtracted(decision string) {
	globalManager.matchesExtracted.WithLabelValues(decision).Inc()
}

// RecordExtractionFailure increments the extraction failure counter.
func RecordExtractionFailure() {
	globalManager.extractionFailures.Inc()
}

// RecordDuplicateDocument increments the duplicate document counter.
func RecordDuplicateDocument() {
	globalManager.duplicateDocuments.Inc()
}

// RecordSequencingAmbiguity increments the ambiguity counter.
func RecordSequencingAmbiguity() {
	globalManager.sequencingAmbiguities.Inc()
}

// RecordMatchRated increments the rated match counter for outcome.
func RecordMatchRated(outcome string) {
	globalManager.matchesRated.WithLabelValues(outcome).Inc()
}

// RecordRatingWarning increments the rating warning counter for kind.
func RecordRatingWarning(kind string) {
	globalManager.ratingWarnings.WithLabelValues(kind).Inc()
}

// UpdateTotalWrestlers sets the wrestler gauge.
func UpdateTotalWrestlers(count int) {
	globalManager.totalWrestlers.Set(float64(count))
}

// RecordStageDuration observes a stage duration in milliseconds.
func RecordStageDuration(stage string, ms float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(ms)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
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

// RegisterRuntimeCollectors adds Go runtime and process collectors to the
// custom registry. Calling it twice is harmless.
func RegisterRuntimeCollectors() error {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := customRegistry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
