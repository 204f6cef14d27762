package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YashPS24/CAQMS/internal/application"
	"github.com/YashPS24/CAQMS/internal/config"
	mongoRepo "github.com/YashPS24/CAQMS/internal/infrastructure/mongodb"
	"github.com/YashPS24/CAQMS/pkg/cloudevents"
	"github.com/YashPS24/CAQMS/pkg/kafka"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/metrics"
	"github.com/YashPS24/CAQMS/pkg/mongodb"
	"github.com/YashPS24/CAQMS/pkg/tracing"
)

func main() {
	configPath := flag.String("config", os.Getenv("CAQMS_CONFIG"), "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := logging.New(logging.DefaultConfig(config.ServiceName))
		bootLogger.WithError(err).Error("Failed to load configuration", "path", *configPath)
		os.Exit(1)
	}

	// Setup logger
	logConfig := logging.DefaultConfig(config.ServiceName)
	logConfig.Level = logging.ParseLevel(cfg.Log.Level)
	logConfig.Environment = cfg.Environment
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting washspec-service API", "environment", cfg.Environment)

	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracerProvider, err := tracing.Initialize(ctx, cfg.TracingConfig())
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "enabled", cfg.Tracing.Enabled, "endpoint", cfg.Tracing.Endpoint)
	}

	m := metrics.New(metrics.DefaultConfig(config.ServiceName))

	// MongoDB with instrumentation and circuit breaker
	mongoClient, err := mongodb.NewProductionClient(ctx, cfg.MongoDBConfig(), m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Close(closeCtx); err != nil {
			logger.WithError(err).Warn("Failed to close MongoDB client")
		}
	}()
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	// Kafka is optional; without it saves skip event publishing.
	var publisher application.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProductionProducer(cfg.KafkaConfig(), m, logger)
		defer producer.Close()
		publisher = producer
		logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
	} else {
		logger.Info("Kafka disabled, events will not be published")
	}

	orderRepo := mongoRepo.NewOrderRepository(ctx, mongoClient.Collection(cfg.MongoDB.OrdersCollection), logger)
	templateRepo := mongoRepo.NewTemplateRepository(ctx, mongoClient.Collection(cfg.MongoDB.TemplatesCollection), logger)

	washSpecService := application.NewWashSpecService(
		orderRepo,
		publisher,
		cloudevents.NewEventFactory(cloudevents.SourceWashSpec),
		logger,
		m,
		application.WithSaveAttempts(cfg.Upload.SaveRetryAttempts),
	)
	buyerSpecService := application.NewBuyerSpecService(
		templateRepo,
		orderRepo,
		publisher,
		cloudevents.NewEventFactory(cloudevents.SourceBuyerSpec),
		logger,
		m,
	)

	router := newRouter(routerDeps{
		config:     cfg,
		logger:     logger,
		metrics:    m,
		washSpecs:  washSpecService,
		buyerSpecs: buyerSpecService,
		ready:      mongoClient.HealthCheck,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}
