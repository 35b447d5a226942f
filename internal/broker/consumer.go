package broker

import (
	"context"
	"sync"
	"time"

	"thoughtstream/internal/events"
	"thoughtstream/internal/pipeline"
	"thoughtstream/internal/retry"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Orchestrator is the subset of internal/pipeline.Orchestrator the consumer
// drives, named as an interface so tests can stand in a fake without a real
// sink/cache/agent stack.
type Orchestrator interface {
	Run(ctx context.Context, thoughtID uuid.UUID) (pipeline.Outcome, error)

	// Abandon finalizes a thought whose delivery budget was exhausted across
	// repeated TransientFail outcomes: mark it failed in the sink and publish
	// ThoughtFailed, the same terminal effect a PermanentFail outcome gets.
	Abandon(ctx context.Context, thoughtID uuid.UUID, cause error)
}

// DeliveryTracker bounds in-process Nack-driven redeliveries per thought,
// mirroring retry_counts in original_source/kafka/consumer.py:consume. It is
// process-local and reset on restart; the durable attempt_count column in
// the thought row is the source of truth across restarts.
type DeliveryTracker struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
}

func NewDeliveryTracker() *DeliveryTracker {
	return &DeliveryTracker{counts: make(map[uuid.UUID]int)}
}

func (t *DeliveryTracker) Increment(id uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[id]++
	return t.counts[id]
}

func (t *DeliveryTracker) Forget(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, id)
}

// Consumer subscribes to the work topic within a consumer group and
// dispatches each ThoughtCreated envelope to the orchestrator, generalized
// from the teacher's consumerService.Consume/processMessage shape
// (subscribe once, range over the message channel, Ack/Nack per message) but
// onto a Kafka-backed subscriber with manual commit instead of gochannel.
type Consumer struct {
	cfg          Config
	subscriber   message.Subscriber
	orchestrator Orchestrator
	dlq          *DeadLetterPublisher
	deliveries   *DeliveryTracker
}

func NewConsumer(cfg Config, logger watermill.LoggerAdapter, orchestrator Orchestrator, dlq *DeadLetterPublisher) (*Consumer, error) {
	saramaConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = false
	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(cfg.SessionTimeoutMs) * time.Millisecond
	saramaConfig.ChannelBufferSize = cfg.BatchSize

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               []string{cfg.BootstrapServers},
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: saramaConfig,
		ConsumerGroup:         cfg.ConsumerGroup,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		cfg:          cfg,
		subscriber:   subscriber,
		orchestrator: orchestrator,
		dlq:          dlq,
		deliveries:   NewDeliveryTracker(),
	}, nil
}

// Consume subscribes to the work topic and processes messages until ctx is
// cancelled, one partition's messages strictly in order on the caller's
// goroutine (the consumer group's rebalance already gives one goroutine per
// partition across Consume's callers, matching §4.3's concurrency model).
func (c *Consumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.cfg.WorkTopic)
	if err != nil {
		return err
	}

	for msg := range messages {
		c.process(ctx, msg)
	}
	return nil
}

func (c *Consumer) process(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg.Payload)
	if err != nil {
		// Unparseable envelope or unrecognized schema version: never
		// redeliverable, route straight to the DLQ.
		c.dlq.Send(ctx, msg.Payload, "undecodable: "+err.Error())
		msg.Ack()
		return
	}

	created, ok := event.(events.ThoughtCreated)
	if !ok {
		// Informational fan-out types are not work orders for this consumer.
		msg.Ack()
		return
	}

	outcome, runErr := c.orchestrator.Run(ctx, created.ThoughtID)
	switch outcome {
	case pipeline.OK:
		c.deliveries.Forget(created.ThoughtID)
		msg.Ack()
	case pipeline.PermanentFail:
		c.deliveries.Forget(created.ThoughtID)
		c.dlq.Send(ctx, msg.Payload, errMessage(runErr))
		msg.Ack()
	case pipeline.TransientFail:
		attempt := c.deliveries.Increment(created.ThoughtID)
		if attempt >= c.cfg.MaxRetries {
			c.deliveries.Forget(created.ThoughtID)
			c.orchestrator.Abandon(ctx, created.ThoughtID, runErr)
			c.dlq.Send(ctx, msg.Payload, "retry budget exhausted: "+errMessage(runErr))
			msg.Ack()
			return
		}
		_ = retry.Sleep(ctx, c.cfg.retryBackoffBase(), attempt)
		msg.Nack()
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (c *Consumer) Close() error {
	return c.subscriber.Close()
}
