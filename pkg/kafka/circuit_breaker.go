package kafka

import (
	"context"

	"github.com/YashPS24/CAQMS/pkg/cloudevents"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/metrics"
	"github.com/YashPS24/CAQMS/pkg/resilience"
	"github.com/sony/gobreaker"
)

// CircuitBreakerProducer wraps InstrumentedProducer with circuit breaker protection.
// An unreachable broker fails fast instead of holding request goroutines for
// the full write timeout.
type CircuitBreakerProducer struct {
	producer       *InstrumentedProducer
	circuitBreaker *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer *InstrumentedProducer, logger *logging.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	config.MaxRequests = 5
	config.OnStateChange = func(name string, to gobreaker.State) {
		producer.metrics.SetCircuitBreakerState(name, int(to))
	}

	var cb *resilience.CircuitBreaker
	if logger != nil {
		cb = resilience.NewCircuitBreaker(config, logger.Logger)
	} else {
		cb = resilience.NewCircuitBreaker(config, nil)
	}

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: cb,
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// BreakerStatus reports the breaker counters for readiness output.
func (p *CircuitBreakerProducer) BreakerStatus() resilience.CircuitBreakerStatus {
	return p.circuitBreaker.Status()
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// NewProductionProducer creates an instrumented, circuit breaker protected producer.
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	return NewCircuitBreakerProducer(NewInstrumentedProducer(NewProducer(config), m, logger), logger)
}
