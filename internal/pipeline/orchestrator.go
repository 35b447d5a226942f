package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"thoughtstream/internal/agent"
	"thoughtstream/internal/cache"
	"thoughtstream/internal/embedding"
	"thoughtstream/internal/entity"
	"thoughtstream/internal/errkind"
	"thoughtstream/internal/events"
	"thoughtstream/internal/repository/contract"
	"thoughtstream/internal/sink"

	"github.com/google/uuid"
)

// Publisher is the fan-out bus dependency the orchestrator publishes
// progress events through; implemented by internal/fanout.Bus.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event events.Event) error
}

type Config struct {
	ContextVersion int
}

// Orchestrator drives one thought through the five-stage pipeline, per the
// step list in §4.3. It is stateless between calls: all durable state lives
// in the sink, the cache, and the user context repository.
type Orchestrator struct {
	sink        *sink.Sink
	cache       *cache.Cache
	memo        *cache.EmbeddingMemo
	embedder    embedding.Provider
	agents      *agent.Pipeline
	userContext contract.UserContextRepository
	publisher   Publisher
	cfg         Config
}

func New(
	thoughtSink *sink.Sink,
	semanticCache *cache.Cache,
	memo *cache.EmbeddingMemo,
	embedder embedding.Provider,
	agents *agent.Pipeline,
	userContext contract.UserContextRepository,
	publisher Publisher,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		sink:        thoughtSink,
		cache:       semanticCache,
		memo:        memo,
		embedder:    embedder,
		agents:      agents,
		userContext: userContext,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// Run executes one delivery of a ThoughtCreated work item to completion or
// to a classified failure, per the nine steps of §4.3.
func (o *Orchestrator) Run(ctx context.Context, thoughtID uuid.UUID) (Outcome, error) {
	thought, err := o.sink.Load(ctx, thoughtID)
	if err != nil {
		return PermanentFail, errkind.NewPermanent(errkind.PermanentInvariant, "failed to load thought", err)
	}
	if thought == nil {
		return PermanentFail, errkind.NewPermanent(errkind.PermanentInvariant, "thought not found", nil)
	}
	if thought.Status == entity.ThoughtStatusCompleted || thought.Status == entity.ThoughtStatusFailed {
		return OK, nil
	}

	started := time.Now().UTC()

	ok, err := o.sink.BeginProcessing(ctx, thoughtID)
	if err != nil {
		return PermanentFail, errkind.NewPermanent(errkind.PermanentInvariant, "failed to begin processing", err)
	}
	if !ok {
		return TransientFail, errkind.NewTransient(errkind.TransientInProgress, nil)
	}

	_ = o.publisher.Publish(ctx, thought.UserId, events.NewThoughtProcessing(thoughtID, thought.UserId))

	userContext, err := o.userContext.FindByUserID(ctx, thought.UserId)
	if err != nil {
		return o.fail(ctx, thought, errkind.PermanentInvariant, err.Error())
	}
	if userContext == nil {
		return o.fail(ctx, thought, errkind.PermanentUnknownUser, "no user context for this user")
	}

	// An embedding failure is treated like a cache miss (§4.8).
	embVec, embedErr := o.embed(ctx, thought.Text)
	var cached *entity.StageOutputs
	hit := false
	if embedErr == nil {
		var cacheErr error
		cached, hit, cacheErr = o.cache.Lookup(ctx, thought.UserId, embVec)
		hit = hit && cacheErr == nil
	}
	if hit {
		if err := o.writeStages(ctx, thoughtID, *cached); err != nil {
			return o.fail(ctx, thought, errkind.PermanentInvariant, err.Error())
		}
		if err := o.sink.Complete(ctx, thoughtID, embVec, o.cfg.ContextVersion); err != nil {
			return o.fail(ctx, thought, errkind.PermanentInvariant, err.Error())
		}
		_ = o.publisher.Publish(ctx, thought.UserId, events.NewThoughtCompleted(thoughtID, thought.UserId, time.Since(started), true))
		return OK, nil
	}
	// A cache lookup error is treated identically to a miss (§4.8) — the
	// pipeline always falls through to running the agents live.

	outputs, stageErr := o.runAgents(ctx, thought, *userContext)
	if stageErr != nil {
		return o.classifyAndFail(ctx, thought, stageErr)
	}

	if err := o.sink.Complete(ctx, thoughtID, embVec, o.cfg.ContextVersion); err != nil {
		return o.fail(ctx, thought, errkind.PermanentInvariant, err.Error())
	}
	if err := o.cache.Store(ctx, thought.UserId, thought.Text, embVec, outputs); err != nil {
		// Best-effort: a cache write failure never fails an otherwise-successful run.
		_ = err
	}

	_ = o.publisher.Publish(ctx, thought.UserId, events.NewThoughtCompleted(thoughtID, thought.UserId, time.Since(started), false))
	return OK, nil
}

func (o *Orchestrator) embed(ctx context.Context, text string) ([]float32, error) {
	if o.memo != nil {
		if v, found := o.memo.Get(text); found {
			return v, nil
		}
	}
	v, err := o.embedder.Generate(ctx, text)
	if err != nil {
		return nil, err
	}
	if o.memo != nil {
		o.memo.Set(text, v)
	}
	return v, nil
}

func (o *Orchestrator) writeStages(ctx context.Context, thoughtID uuid.UUID, outputs entity.StageOutputs) error {
	stages := []struct {
		name   entity.StageName
		output interface{}
	}{
		{entity.StageClassification, outputs.Classification},
		{entity.StageAnalysis, outputs.Analysis},
		{entity.StageValueImpact, outputs.ValueImpact},
		{entity.StageActionPlan, outputs.ActionPlan},
		{entity.StagePriority, outputs.Priority},
	}
	for _, s := range stages {
		if _, err := o.sink.WriteStage(ctx, thoughtID, s.name, s.output); err != nil {
			return err
		}
	}
	return nil
}

// runAgents runs A1..A5 in sequence, persisting and publishing progress
// after each, per §4.3 step 6.
func (o *Orchestrator) runAgents(ctx context.Context, thought *entity.Thought, userContext entity.UserContext) (entity.StageOutputs, error) {
	var outputs entity.StageOutputs

	classification, err := o.agents.Classification.Run(ctx, thought.Text, userContext)
	if err != nil {
		return outputs, err
	}
	outputs.Classification = classification
	if err := o.persistAndPublish(ctx, thought, entity.StageClassification, "classification", 1, classification); err != nil {
		return outputs, err
	}

	analysis, err := o.agents.Analysis.Run(ctx, thought.Text, classification, userContext)
	if err != nil {
		return outputs, err
	}
	outputs.Analysis = analysis
	if err := o.persistAndPublish(ctx, thought, entity.StageAnalysis, "analysis", 2, analysis); err != nil {
		return outputs, err
	}

	valueImpact, err := o.agents.ValueImpact.Run(ctx, thought.Text, classification, analysis, userContext)
	if err != nil {
		return outputs, err
	}
	outputs.ValueImpact = valueImpact
	if err := o.persistAndPublish(ctx, thought, entity.StageValueImpact, "value_impact", 3, valueImpact); err != nil {
		return outputs, err
	}

	actionPlan, err := o.agents.ActionPlan.Run(ctx, thought.Text, analysis, valueImpact, userContext)
	if err != nil {
		return outputs, err
	}
	outputs.ActionPlan = actionPlan
	if err := o.persistAndPublish(ctx, thought, entity.StageActionPlan, "action_plan", 4, actionPlan); err != nil {
		return outputs, err
	}

	priority, err := o.agents.Prioritization.Run(ctx, thought.Text, actionPlan, valueImpact, userContext)
	if err != nil {
		return outputs, err
	}
	outputs.Priority = priority
	if err := o.persistAndPublish(ctx, thought, entity.StagePriority, "prioritization", 5, priority); err != nil {
		return outputs, err
	}

	return outputs, nil
}

func (o *Orchestrator) persistAndPublish(ctx context.Context, thought *entity.Thought, stage entity.StageName, agentName string, agentNumber int, output interface{}) error {
	if _, err := o.sink.WriteStage(ctx, thought.Id, stage, output); err != nil {
		return err
	}
	raw, _ := json.Marshal(output)
	_ = o.publisher.Publish(ctx, thought.UserId, events.NewThoughtAgentCompleted(thought.Id, thought.UserId, agentName, agentNumber, 5, raw))
	return nil
}

// Abandon finalizes a thought whose broker-level delivery budget has been
// spent across repeated TransientFail outcomes from Run. §4.2 step 5 treats
// retry-budget exhaustion exactly like a permanent failure classified inside
// Run itself: mark the sink failed and publish ThoughtFailed, so the thought
// never sits in processing waiting for the sweeper to notice. Best-effort
// like the internal fail helper: a sink or publish error here is swallowed
// since the caller has no further retry to offer and is about to DLQ anyway.
func (o *Orchestrator) Abandon(ctx context.Context, thoughtID uuid.UUID, cause error) {
	thought, err := o.sink.Load(ctx, thoughtID)
	if err != nil || thought == nil {
		return
	}
	message := "retry budget exhausted"
	if cause != nil {
		message += ": " + cause.Error()
	}
	_ = o.sink.Fail(ctx, thoughtID, string(errkind.PermanentRetryExhausted), message)
	_ = o.publisher.Publish(ctx, thought.UserId, events.NewThoughtFailed(thoughtID, thought.UserId, string(errkind.PermanentRetryExhausted), message, thought.AttemptCount))
}

func (o *Orchestrator) fail(ctx context.Context, thought *entity.Thought, kind errkind.Kind, message string) (Outcome, error) {
	_ = o.sink.Fail(ctx, thought.Id, string(kind), message)
	_ = o.publisher.Publish(ctx, thought.UserId, events.NewThoughtFailed(thought.Id, thought.UserId, string(kind), message, thought.AttemptCount))
	return PermanentFail, errkind.NewPermanent(kind, message, nil)
}

func (o *Orchestrator) classifyAndFail(ctx context.Context, thought *entity.Thought, stageErr error) (Outcome, error) {
	outcome, kind := outcomeFromError(stageErr, errkind.PermanentInvariant)
	if outcome == TransientFail {
		return TransientFail, stageErr
	}
	return o.fail(ctx, thought, kind, stageErr.Error())
}
