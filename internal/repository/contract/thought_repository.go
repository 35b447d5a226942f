package contract

import (
	"context"
	"errors"
	"time"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrIncompleteStages is returned by Complete when not all five stage
// columns are populated yet; the orchestrator treats this as a bug in its
// own step ordering, never a condition to retry around.
var ErrIncompleteStages = errors.New("thought_repository: cannot complete, one or more stage outputs are missing")

type ThoughtRepository interface {
	Create(ctx context.Context, thought *entity.Thought) error
	Update(ctx context.Context, thought *entity.Thought) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thought, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thought, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// BeginProcessing atomically transitions a thought from {pending, failed} into
	// processing, incrementing the attempt counter. ok is false if the row was not
	// in an eligible status (already processing or completed by a concurrent
	// delivery), in which case the caller must not proceed.
	BeginProcessing(ctx context.Context, thoughtID uuid.UUID, now time.Time) (ok bool, err error)

	// WriteStage sets the named stage's jsonb column via UPDATE, guarded by a
	// column-is-null predicate so the write is first-writer-wins.
	WriteStage(ctx context.Context, thoughtID uuid.UUID, stage entity.StageName, raw []byte) (written bool, err error)

	Complete(ctx context.Context, thoughtID uuid.UUID, embedding []float32, contextVersion int, now time.Time) error
	Fail(ctx context.Context, thoughtID uuid.UUID, kind, message string, now time.Time) error

	// ListStuck returns thoughts whose status is processing and whose
	// processing_started_at is older than the grace cutoff.
	ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Thought, error)

	// RequeueForRetry moves a stuck thought back to pending so the broker consumer
	// (or the sweeper's own re-publish) picks it up again.
	RequeueForRetry(ctx context.Context, thoughtID uuid.UUID) error
}
