package broker

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// dlqEnvelope wraps the original undelivered payload with the reason it
// could not be processed, grounded on _send_to_dlq's ThoughtFailedEvent in
// original_source/kafka/consumer.py.
type dlqEnvelope struct {
	OriginalPayload []byte `json:"original_payload"`
	FailureReason   string `json:"failure_reason"`
}

// DeadLetterPublisher publishes undeliverable envelopes to the dead-letter
// topic, generalized from _send_to_dlq: the Python original opens a fresh
// producer per failure, sends the failed event keyed by user_id, and swallows
// any publish error behind a log line. This keeps the same swallow-and-log
// contract but reuses a single long-lived publisher instead of one per call.
type DeadLetterPublisher struct {
	cfg       Config
	publisher message.Publisher
	logger    watermill.LoggerAdapter
}

func NewDeadLetterPublisher(cfg Config, logger watermill.LoggerAdapter) (*DeadLetterPublisher, error) {
	if !cfg.Enabled {
		return &DeadLetterPublisher{cfg: cfg, logger: logger}, nil
	}
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   []string{cfg.BootstrapServers},
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		return nil, err
	}
	return &DeadLetterPublisher{cfg: cfg, publisher: publisher, logger: logger}, nil
}

// Send publishes the original message payload plus a failure reason to the
// dead-letter topic. Per the original's behavior, a DLQ publish failure is
// logged and swallowed: the caller has already exhausted its own retry
// budget and there is nowhere further to escalate to.
func (d *DeadLetterPublisher) Send(ctx context.Context, originalPayload []byte, reason string) {
	if d.publisher == nil {
		return
	}
	envelope := dlqEnvelope{OriginalPayload: originalPayload, FailureReason: reason}
	payload, err := json.Marshal(envelope)
	if err != nil {
		d.logger.Error("failed to encode dlq envelope", err, nil)
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := d.publisher.Publish(d.cfg.DLQTopic, msg); err != nil {
		d.logger.Error("failed to publish to dlq", err, nil)
	}
}

func (d *DeadLetterPublisher) Close() error {
	if d.publisher == nil {
		return nil
	}
	return d.publisher.Close()
}
