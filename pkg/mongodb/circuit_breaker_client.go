package mongodb

import (
	"context"
	"errors"

	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/metrics"
	"github.com/YashPS24/CAQMS/pkg/resilience"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CircuitBreakerClient wraps InstrumentedClient with circuit breaker protection
type CircuitBreakerClient struct {
	client         *InstrumentedClient
	circuitBreaker *resilience.CircuitBreaker
}

// NewCircuitBreakerClient creates a new circuit breaker protected MongoDB client
func NewCircuitBreakerClient(client *InstrumentedClient, logger *logging.Logger) *CircuitBreakerClient {
	config := resilience.DefaultCircuitBreakerConfig("mongodb")
	config.MaxRequests = 5
	config.IsSuccessful = isBreakerNeutral
	config.OnStateChange = func(name string, to gobreaker.State) {
		client.metrics.SetCircuitBreakerState(name, int(to))
	}

	var cb *resilience.CircuitBreaker
	if logger != nil {
		cb = resilience.NewCircuitBreaker(config, logger.Logger)
	} else {
		cb = resilience.NewCircuitBreaker(config, nil)
	}

	return &CircuitBreakerClient{
		client:         client,
		circuitBreaker: cb,
	}
}

// isBreakerNeutral keeps outcomes that say nothing about store health from tripping the breaker.
func isBreakerNeutral(err error) bool {
	return err == nil ||
		errors.Is(err, mongo.ErrNoDocuments) ||
		errors.Is(err, context.Canceled) ||
		mongo.IsDuplicateKeyError(err)
}

// Collection returns a circuit breaker protected collection
func (c *CircuitBreakerClient) Collection(name string) *CircuitBreakerCollection {
	return &CircuitBreakerCollection{
		collection:     c.client.Collection(name),
		circuitBreaker: c.circuitBreaker,
	}
}

// Database returns the underlying database handle
func (c *CircuitBreakerClient) Database() *mongo.Database {
	return c.client.Database()
}

// Close disconnects the client
func (c *CircuitBreakerClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck performs a health check with circuit breaker protection
func (c *CircuitBreakerClient) HealthCheck(ctx context.Context) error {
	_, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, c.client.HealthCheck(ctx)
	})
	return err
}

// BreakerStatus reports the breaker counters for readiness output.
func (c *CircuitBreakerClient) BreakerStatus() resilience.CircuitBreakerStatus {
	return c.circuitBreaker.Status()
}

// CircuitBreakerCollection wraps InstrumentedCollection with circuit breaker protection
type CircuitBreakerCollection struct {
	collection     *InstrumentedCollection
	circuitBreaker *resilience.CircuitBreaker
}

// singleResult runs a single-document call through the breaker. When the breaker
// rejects the call the error is carried on the returned SingleResult so callers
// never mistake an open circuit for a missing document.
func (c *CircuitBreakerCollection) singleResult(ctx context.Context, fn func() *mongo.SingleResult) *mongo.SingleResult {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		sr := fn()
		return sr, sr.Err()
	})
	if sr, ok := result.(*mongo.SingleResult); ok && sr != nil {
		return sr
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
}

// FindOne finds a single document with circuit breaker protection
func (c *CircuitBreakerCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	return c.singleResult(ctx, func() *mongo.SingleResult {
		return c.collection.FindOne(ctx, filter, opts...)
	})
}

// FindOneAndUpdate finds and updates a document with circuit breaker protection
func (c *CircuitBreakerCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	return c.singleResult(ctx, func() *mongo.SingleResult {
		return c.collection.FindOneAndUpdate(ctx, filter, update, opts...)
	})
}

// Find finds multiple documents with circuit breaker protection
func (c *CircuitBreakerCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.Find(ctx, filter, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.Cursor), nil
}

// CountDocuments counts documents with circuit breaker protection
func (c *CircuitBreakerCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.CountDocuments(ctx, filter, opts...)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Distinct lists distinct field values with circuit breaker protection
func (c *CircuitBreakerCollection) Distinct(ctx context.Context, fieldName string, filter interface{}, opts ...*options.DistinctOptions) ([]interface{}, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.Distinct(ctx, fieldName, filter, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.([]interface{}), nil
}

// InsertOne inserts a single document with circuit breaker protection
func (c *CircuitBreakerCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.InsertOne(ctx, document, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.InsertOneResult), nil
}

// UpdateOne updates a single document with circuit breaker protection
func (c *CircuitBreakerCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.UpdateOne(ctx, filter, update, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.UpdateResult), nil
}

// Indexes returns the index view; index management bypasses the breaker.
func (c *CircuitBreakerCollection) Indexes() mongo.IndexView {
	return c.collection.Indexes()
}

// Name returns the collection name
func (c *CircuitBreakerCollection) Name() string {
	return c.collection.Name()
}

// NewProductionClient creates a fully configured MongoDB client with instrumentation and circuit breaker
func NewProductionClient(ctx context.Context, config *Config, m *metrics.Metrics, logger *logging.Logger) (*CircuitBreakerClient, error) {
	baseClient, err := NewClient(ctx, config)
	if err != nil {
		return nil, err
	}

	instrumented := NewInstrumentedClient(baseClient, m, logger)
	return NewCircuitBreakerClient(instrumented, logger), nil
}
