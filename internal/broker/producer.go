package broker

import (
	"context"
	"errors"

	"thoughtstream/internal/errkind"
	"thoughtstream/internal/events"
	"thoughtstream/internal/retry"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const partitionKeyMetadata = "partition_key"

// Producer publishes ThoughtCreated events to the work topic, partitioned by
// user_id so all of one user's events land on the same partition, mirroring
// _get_partition_key in original_source/kafka/producer.py.
type Producer struct {
	cfg       Config
	publisher message.Publisher
}

// NewProducer builds a watermill-kafka publisher configured for
// RequiredAcks = WaitForAll (durability before Submit returns) and
// partitioned by the partition_key message metadata key. When cfg.Enabled is
// false, publisher is left nil and Submit degrades to the fallback path.
func NewProducer(cfg Config, logger watermill.LoggerAdapter) (*Producer, error) {
	if !cfg.Enabled {
		return &Producer{cfg: cfg}, nil
	}

	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = cfg.MaxRetries

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers: []string{cfg.BootstrapServers},
		Marshaler: kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
			return msg.Metadata.Get(partitionKeyMetadata), nil
		}),
		OverwriteSaramaConfig: saramaConfig,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &Producer{cfg: cfg, publisher: publisher}, nil
}

// Submit serializes and publishes a ThoughtCreated event. When the producer
// is disabled it publishes nothing, logs nothing, and still reports ok=true;
// the thought row stays pending. Nothing re-enqueues a pending row: the
// recovery sweeper scans only rows stuck in processing.
func (p *Producer) Submit(ctx context.Context, thoughtID, userID uuid.UUID, text string) (bool, error) {
	if p.publisher == nil {
		return true, nil
	}

	event := events.NewThoughtCreated(thoughtID, userID, text, "")
	payload, err := events.Marshal(event)
	if err != nil {
		return false, errkind.NewPermanent(errkind.PermanentInvalidPayload, "failed to encode thought_created event", err)
	}

	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set(partitionKeyMetadata, userID.String())

	err = retry.Do(ctx, p.cfg.MaxRetries, p.cfg.retryBackoffBase(), isTransientPublishErr, func(attempt int) error {
		return p.publisher.Publish(p.cfg.WorkTopic, msg)
	})
	if err != nil {
		return false, errkind.NewTransient(errkind.TransientNetwork, err)
	}

	return true, nil
}

func (p *Producer) Close() error {
	if p.publisher == nil {
		return nil
	}
	return p.publisher.Close()
}

func isTransientPublishErr(err error) bool {
	return errors.Is(err, sarama.ErrNotLeaderForPartition) ||
		errors.Is(err, sarama.ErrLeaderNotAvailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
