package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service exposes. A nil *Metrics is valid
// and records nothing, which keeps unit tests free of registry setup.
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Washing specs
	SheetsIngested      *prometheus.CounterVec
	SheetRows           prometheus.Histogram
	SpecUploads         *prometheus.CounterVec
	MeasurementsWritten *prometheus.CounterVec
	UnresolvedColors    prometheus.Counter
	TemplatesSaved      *prometheus.CounterVec

	// Circuit breaker
	CircuitBreakerState *prometheus.GaugeVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "caqms",
	}
}

// New creates a new Metrics instance on its own registry.
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "kafka_events_published_total",
			Help:      "Total number of Kafka events published",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "topic"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "mongodb_operations_total",
			Help:      "Total number of MongoDB operations",
		},
		[]string{"service", "collection", "operation", "status"},
	)

	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "collection", "operation"},
	)

	m.SheetsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "washspec_sheets_ingested_total",
			Help:      "Spreadsheets run through ingestion, by source and outcome",
		},
		[]string{"service", "source", "outcome"},
	)

	m.SheetRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   ns,
			Name:        "washspec_sheet_rows",
			Help:        "Measurement rows kept per ingested sheet",
			Buckets:     []float64{1, 5, 10, 20, 40, 80, 160},
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.SpecUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "washspec_uploads_total",
			Help:      "Washing spec save requests by outcome",
		},
		[]string{"service", "outcome"},
	)

	m.MeasurementsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "washspec_measurements_written_total",
			Help:      "Measurement rows written per wash stage",
		},
		[]string{"service", "stage"},
	)

	m.UnresolvedColors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "washspec_unresolved_colors_total",
			Help:        "Selected color codes that were not present on the order",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.TemplatesSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "buyer_spec_templates_saved_total",
			Help:      "Buyer spec template writes by operation",
		},
		[]string{"service", "operation"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.SheetsIngested,
		m.SheetRows,
		m.SpecUploads,
		m.MeasurementsWritten,
		m.UnresolvedColors,
		m.TemplatesSaved,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, outcome(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, outcome(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordSheetIngested records one ingestion attempt. rows is ignored on failure.
func (m *Metrics) RecordSheetIngested(source string, success bool, rows int) {
	if m == nil {
		return
	}
	m.SheetsIngested.WithLabelValues(m.serviceName, source, outcome(success)).Inc()
	if success {
		m.SheetRows.Observe(float64(rows))
	}
}

// RecordSpecUpload records the terminal state of a save request:
// updated, unchanged, rejected or failed.
func (m *Metrics) RecordSpecUpload(result string) {
	if m == nil {
		return
	}
	m.SpecUploads.WithLabelValues(m.serviceName, result).Inc()
}

// RecordMeasurementsWritten adds written rows for a wash stage.
func (m *Metrics) RecordMeasurementsWritten(stage string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.MeasurementsWritten.WithLabelValues(m.serviceName, stage).Add(float64(count))
}

// RecordUnresolvedColors counts color codes skipped during a save.
func (m *Metrics) RecordUnresolvedColors(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.UnresolvedColors.Add(float64(count))
}

// RecordTemplateSaved records a buyer spec template create or update.
func (m *Metrics) RecordTemplateSaved(operation string) {
	if m == nil {
		return
	}
	m.TemplatesSaved.WithLabelValues(m.serviceName, operation).Inc()
}

// SetCircuitBreakerState sets circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}
