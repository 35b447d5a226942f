// Package ops publishes operator-facing diagnostics to a NATS JetStream
// stream, independent of the Kafka work queue and the Redis fan-out. It
// exists purely for visibility (dashboards, alerting) and is never on the
// critical path of a thought's lifecycle: every method call here is
// best-effort and swallows its own errors, mirroring the teacher's
// pkg/admin/events.NatsPublisher (nil-publisher no-op guard, log-and-continue
// on publish failure).
package ops

import (
	"context"
	"encoding/json"
	"time"

	"thoughtstream/internal/pkg/logger"

	pktnats "thoughtstream/pkg/nats"

	"github.com/google/uuid"
)

type diagnosticEvent struct {
	Subject   string                 `json:"subject"`
	ThoughtID uuid.UUID              `json:"thought_id"`
	UserID    uuid.UUID              `json:"user_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// Publisher emits operational diagnostics. A nil *pktnats.Publisher (ops_nats_url
// unset in configuration) makes every method a no-op, matching §6.5's
// "ops diagnostics disabled if empty".
type Publisher struct {
	publisher *pktnats.Publisher
	logger    logger.ILogger
}

func NewPublisher(publisher *pktnats.Publisher, log logger.ILogger) *Publisher {
	return &Publisher{publisher: publisher, logger: log}
}

// PublishStuckThoughtRequeued reports that the sweeper found a thought stuck
// in processing and republished it for another delivery attempt.
func (p *Publisher) PublishStuckThoughtRequeued(ctx context.Context, thoughtID, userID uuid.UUID, attemptCount int, stuckFor time.Duration) {
	p.publish(ctx, "thought.stuck_requeued", thoughtID, userID, map[string]interface{}{
		"attempt_count":    attemptCount,
		"stuck_for_seconds": stuckFor.Seconds(),
	})
}

// PublishStuckThoughtAbandoned reports that a stuck thought exhausted its
// delivery budget and was marked permanently failed by the sweeper.
func (p *Publisher) PublishStuckThoughtAbandoned(ctx context.Context, thoughtID, userID uuid.UUID, attemptCount int) {
	p.publish(ctx, "thought.stuck_abandoned", thoughtID, userID, map[string]interface{}{
		"attempt_count": attemptCount,
	})
}

// PublishCacheDegraded reports that the semantic cache is failing lookups or
// stores repeatedly, useful for alerting even though the pipeline itself
// treats every cache error as a plain miss.
func (p *Publisher) PublishCacheDegraded(ctx context.Context, reason string) {
	p.publish(ctx, "cache.degraded", uuid.Nil, uuid.Nil, map[string]interface{}{
		"reason": reason,
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, thoughtID, userID uuid.UUID, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}
	evt := diagnosticEvent{
		Subject:    subject,
		ThoughtID:  thoughtID,
		UserID:     userID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("OPS", "failed to encode diagnostic event", map[string]interface{}{"error": err.Error(), "subject": subject})
		return
	}
	if err := p.publisher.Publish(ctx, subject, raw); err != nil {
		p.logger.Error("OPS", "failed to publish diagnostic event", map[string]interface{}{"error": err.Error(), "subject": subject})
	}
}
