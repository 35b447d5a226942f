// Package sink is the sole point where a thought row's status transitions are
// enforced. Every other component reads the row or appends a stage output;
// only this package moves it between pending/processing/completed/failed.
package sink

import (
	"context"
	"encoding/json"
	"time"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/repository/contract"
	"thoughtstream/internal/repository/specification"

	"github.com/google/uuid"
)

type Sink struct {
	thoughts contract.ThoughtRepository
}

func New(thoughts contract.ThoughtRepository) *Sink {
	return &Sink{thoughts: thoughts}
}

// BeginProcessing performs the atomic pending|failed -> processing transition.
// ok is false when the row was not in pending or failed, for example because
// another delivery already holds it in processing; the orchestrator turns
// that into TransientFail{in_progress} rather than retrying immediately. A
// row in processing is reported busy however long ago processing started;
// rows stuck past the grace window are reset only by the recovery sweeper.
func (s *Sink) BeginProcessing(ctx context.Context, thoughtID uuid.UUID) (ok bool, err error) {
	return s.thoughts.BeginProcessing(ctx, thoughtID, time.Now().UTC())
}

// WriteStage persists one stage's output immediately after that stage
// completes, rather than batching all five into the terminal Complete call,
// so a crash mid-pipeline does not lose already-finished work.
func (s *Sink) WriteStage(ctx context.Context, thoughtID uuid.UUID, stage entity.StageName, output interface{}) (written bool, err error) {
	raw, err := json.Marshal(output)
	if err != nil {
		return false, err
	}
	return s.thoughts.WriteStage(ctx, thoughtID, stage, raw)
}

// Complete marks a thought completed and stores its embedding. It fails with
// contract.ErrIncompleteStages if any of the five stage columns are still
// null, which the orchestrator treats as a logic error, never a retry signal.
func (s *Sink) Complete(ctx context.Context, thoughtID uuid.UUID, embedding []float32, contextVersion int) error {
	return s.thoughts.Complete(ctx, thoughtID, embedding, contextVersion, time.Now().UTC())
}

// Fail marks a thought terminally failed. Idempotent: calling it twice for
// the same thought only updates the row once (the repository guards with
// "status != failed").
func (s *Sink) Fail(ctx context.Context, thoughtID uuid.UUID, kind, message string) error {
	return s.thoughts.Fail(ctx, thoughtID, kind, message, time.Now().UTC())
}

// Load returns the current row, or nil if it does not exist.
func (s *Sink) Load(ctx context.Context, thoughtID uuid.UUID) (*entity.Thought, error) {
	return s.thoughts.FindOne(ctx, specification.ByID{ID: thoughtID})
}

// ListStuck returns thoughts left in processing past cutoff, for the sweeper.
func (s *Sink) ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Thought, error) {
	return s.thoughts.ListStuck(ctx, cutoff, limit)
}

// RequeueForRetry moves a stuck thought back to pending so the broker
// redelivers it on the sweeper's republish.
func (s *Sink) RequeueForRetry(ctx context.Context, thoughtID uuid.UUID) error {
	return s.thoughts.RequeueForRetry(ctx, thoughtID)
}
