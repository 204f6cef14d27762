package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Enabled  bool
	Brokers  []string
	ClientID string

	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:  false,
		Brokers:  []string{"localhost:9092"},
		ClientID: "caqms-washspec",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 5 * time.Second,
	}
}

// Topics contains the Kafka topic names this service writes to
var Topics = struct {
	WashSpecEvents  string
	BuyerSpecEvents string
}{
	WashSpecEvents:  "caqms.washspec.events",
	BuyerSpecEvents: "caqms.buyerspec.events",
}
