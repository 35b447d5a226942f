// Package sweeper is the sole safeguard against a consumer crash that
// happens after BeginProcessing but before any terminal state: a periodic
// scan-and-act loop restructured from the batch-loop shape of
// original_source/batch_processor/processor.py's process_user_batch (poll a
// bounded batch of rows, decide per row, act) onto stuck-thought recovery
// instead of fresh-thought processing.
package sweeper

import (
	"context"
	"time"

	"thoughtstream/internal/broker"
	"thoughtstream/internal/entity"
	"thoughtstream/internal/events"
	"thoughtstream/internal/ops"
	"thoughtstream/internal/pipeline"
	"thoughtstream/internal/pkg/logger"
	"thoughtstream/internal/sink"
)

const scanBatchSize = 100

// Sweeper periodically reclaims thoughts stuck in processing.
type Sweeper struct {
	cfg       Config
	sink      *sink.Sink
	producer  *broker.Producer
	publisher pipeline.Publisher
	ops       *ops.Publisher
	logger    logger.ILogger
}

func New(cfg Config, thoughtSink *sink.Sink, producer *broker.Producer, publisher pipeline.Publisher, opsPublisher *ops.Publisher, log logger.ILogger) *Sweeper {
	return &Sweeper{cfg: cfg, sink: thoughtSink, producer: producer, publisher: publisher, ops: opsPublisher, logger: log}
}

// Run blocks, sweeping on cfg.IntervalSeconds until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.graceWindow())
	stuck, err := s.sink.ListStuck(ctx, cutoff, scanBatchSize)
	if err != nil {
		s.logger.Error("SWEEPER", "failed to list stuck thoughts", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, thought := range stuck {
		s.reclaim(ctx, thought)
	}
}

func (s *Sweeper) reclaim(ctx context.Context, thought *entity.Thought) {
	stuckFor := time.Since(*thought.ProcessingStartedAt)

	if thought.AttemptCount < s.cfg.PipelineMaxAttempts {
		if err := s.sink.RequeueForRetry(ctx, thought.Id); err != nil {
			s.logger.Error("SWEEPER", "failed to requeue stuck thought", map[string]interface{}{"error": err.Error(), "thought_id": thought.Id})
			return
		}
		accepted, err := s.producer.Submit(ctx, thought.Id, thought.UserId, thought.Text)
		if err != nil || !accepted {
			s.logger.Error("SWEEPER", "failed to republish stuck thought", map[string]interface{}{"thought_id": thought.Id})
		}
		s.ops.PublishStuckThoughtRequeued(ctx, thought.Id, thought.UserId, thought.AttemptCount, stuckFor)
		return
	}

	const stuckKind = "permanent/stuck"
	const stuckMessage = "exceeded delivery budget while stuck in processing"
	if err := s.sink.Fail(ctx, thought.Id, stuckKind, stuckMessage); err != nil {
		s.logger.Error("SWEEPER", "failed to mark stuck thought failed", map[string]interface{}{"error": err.Error(), "thought_id": thought.Id})
		return
	}
	_ = s.publisher.Publish(ctx, thought.UserId, events.NewThoughtFailed(thought.Id, thought.UserId, stuckKind, stuckMessage, thought.AttemptCount))
	s.ops.PublishStuckThoughtAbandoned(ctx, thought.Id, thought.UserId, thought.AttemptCount)
}
