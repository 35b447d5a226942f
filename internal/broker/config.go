// Package broker wires the Kafka work topic and dead-letter topic behind the
// Submit/Consume contract in SPEC §4.1-4.2, generalized from the teacher's
// gochannel-based ConsumerService onto watermill-kafka.
package broker

import "time"

type Config struct {
	BootstrapServers string
	WorkTopic        string
	DLQTopic         string
	ConsumerGroup    string
	Partitions       int
	MaxRetries       int
	RetryBackoffMs   int
	BatchSize        int
	LingerMs         int
	SessionTimeoutMs int
	Enabled          bool
}

func DefaultConfig() Config {
	return Config{
		WorkTopic:        "thought-processing",
		DLQTopic:         "thought-processing-dlq",
		ConsumerGroup:    "thought-pipeline",
		Partitions:       3,
		MaxRetries:       3,
		RetryBackoffMs:   200,
		BatchSize:        16,
		LingerMs:         10,
		SessionTimeoutMs: 30000,
		Enabled:          true,
	}
}

func (c Config) retryBackoffBase() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}
