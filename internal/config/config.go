// Package config loads service configuration from an optional config.toml and
// the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/YashPS24/CAQMS/pkg/kafka"
	"github.com/YashPS24/CAQMS/pkg/mongodb"
	"github.com/YashPS24/CAQMS/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics and traces.
const ServiceName = "washspec-service"

// Duration reads TOML strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full service configuration.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	MongoDB     MongoConfig   `toml:"mongodb"`
	Kafka       KafkaConfig   `toml:"kafka"`
	Tracing     TracingConfig `toml:"tracing"`
	Log         LogConfig     `toml:"log"`
	Upload      UploadConfig  `toml:"upload"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	RequestTimeout  Duration `toml:"request_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// MongoConfig holds document store settings.
type MongoConfig struct {
	URI                 string   `toml:"uri"`
	Database            string   `toml:"database"`
	OrdersCollection    string   `toml:"orders_collection"`
	TemplatesCollection string   `toml:"templates_collection"`
	ConnectTimeout      Duration `toml:"connect_timeout"`
	OperationTimeout    Duration `toml:"operation_timeout"`
	MaxPoolSize         uint64   `toml:"max_pool_size"`
	MinPoolSize         uint64   `toml:"min_pool_size"`
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled      bool     `toml:"enabled"`
	Brokers      []string `toml:"brokers"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool    `toml:"enabled"`
	Endpoint   string  `toml:"endpoint"`
	SampleRate float64 `toml:"sample_rate"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// UploadConfig bounds spreadsheet uploads and save retries.
type UploadConfig struct {
	MaxBytes          int64 `toml:"max_bytes"`
	SaveRetryAttempts int   `toml:"save_retry_attempts"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Addr:            ":8001",
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{30 * time.Second},
			RequestTimeout:  Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			AllowedOrigins:  []string{"*"},
		},
		MongoDB: MongoConfig{
			URI:                 "mongodb://localhost:27017",
			Database:            "caqms",
			OrdersCollection:    "dt_orders",
			TemplatesCollection: "buyerspectemplates",
			ConnectTimeout:      Duration{10 * time.Second},
			OperationTimeout:    Duration{15 * time.Second},
			MaxPoolSize:         50,
			MinPoolSize:         5,
		},
		Kafka: KafkaConfig{
			Enabled:      false,
			Brokers:      []string{"localhost:9092"},
			WriteTimeout: Duration{10 * time.Second},
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
		Log: LogConfig{Level: "info"},
		Upload: UploadConfig{
			MaxBytes:          10 << 20,
			SaveRetryAttempts: 3,
		},
	}
}

// Load reads path (skipped when empty or missing), then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Environment, "ENVIRONMENT")
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.MongoDB.URI, "MONGODB_URI")
	setString(&c.MongoDB.Database, "MONGODB_DATABASE")
	setString(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setBool(&c.Kafka.Enabled, "KAFKA_ENABLED")
	setBool(&c.Tracing.Enabled, "TRACING_ENABLED")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.MongoDB.URI == "" {
		errs = append(errs, errors.New("mongodb.uri is required"))
	}
	if c.MongoDB.Database == "" {
		errs = append(errs, errors.New("mongodb.database is required"))
	}
	if c.MongoDB.OrdersCollection == "" || c.MongoDB.TemplatesCollection == "" {
		errs = append(errs, errors.New("mongodb collection names are required"))
	}
	if c.MongoDB.ConnectTimeout.Duration <= 0 || c.MongoDB.OperationTimeout.Duration <= 0 {
		errs = append(errs, errors.New("mongodb timeouts must be positive"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, errors.New("tracing.sample_rate must be between 0 and 1"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes must be positive"))
	}
	if c.Upload.SaveRetryAttempts < 1 {
		errs = append(errs, errors.New("upload.save_retry_attempts must be at least 1"))
	}
	return errors.Join(errs...)
}

// MongoDBConfig converts to the client configuration.
func (c *Config) MongoDBConfig() *mongodb.Config {
	cfg := mongodb.DefaultConfig()
	cfg.URI = c.MongoDB.URI
	cfg.Database = c.MongoDB.Database
	cfg.ConnectTimeout = c.MongoDB.ConnectTimeout.Duration
	cfg.OperationTimeout = c.MongoDB.OperationTimeout.Duration
	cfg.MaxPoolSize = c.MongoDB.MaxPoolSize
	cfg.MinPoolSize = c.MongoDB.MinPoolSize
	return cfg
}

// KafkaConfig converts to the producer configuration.
func (c *Config) KafkaConfig() *kafka.Config {
	cfg := kafka.DefaultConfig()
	cfg.Enabled = c.Kafka.Enabled
	cfg.Brokers = c.Kafka.Brokers
	cfg.ClientID = ServiceName
	cfg.WriteTimeout = c.Kafka.WriteTimeout.Duration
	return cfg
}

// TracingConfig converts to the tracer configuration.
func (c *Config) TracingConfig() *tracing.Config {
	cfg := tracing.DefaultConfig(ServiceName)
	cfg.Enabled = c.Tracing.Enabled
	cfg.OTLPEndpoint = c.Tracing.Endpoint
	cfg.SampleRate = c.Tracing.SampleRate
	cfg.Environment = c.Environment
	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
