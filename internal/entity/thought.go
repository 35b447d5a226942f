package entity

import (
	"time"

	"github.com/google/uuid"
)

type ThoughtStatus string

const (
	ThoughtStatusPending    ThoughtStatus = "pending"
	ThoughtStatusProcessing ThoughtStatus = "processing"
	ThoughtStatusCompleted  ThoughtStatus = "completed"
	ThoughtStatusFailed     ThoughtStatus = "failed"
)

// StageName identifies one of the five agent stage output columns for a
// targeted write (internal/sink.WriteStage never touches the others).
type StageName string

const (
	StageClassification StageName = "classification"
	StageAnalysis        StageName = "analysis"
	StageValueImpact     StageName = "value_impact"
	StageActionPlan      StageName = "action_plan"
	StagePriority        StageName = "priority"
)

// StageOutputs holds the five independent structured objects the agent
// pipeline produces, one per stage. Each field is nil until its stage
// completes and is never overwritten afterward.
type StageOutputs struct {
	Classification *ClassificationResult `json:"classification,omitempty"`
	Analysis       *AnalysisResult       `json:"analysis,omitempty"`
	ValueImpact    *ValueImpactResult    `json:"value_impact,omitempty"`
	ActionPlan     *ActionPlanResult     `json:"action_plan,omitempty"`
	Priority       *PriorityResult       `json:"priority,omitempty"`
}

// Complete reports whether every stage has produced an output.
func (s StageOutputs) Complete() bool {
	return s.Classification != nil && s.Analysis != nil && s.ValueImpact != nil &&
		s.ActionPlan != nil && s.Priority != nil
}

// Thought is the unit of work submitted by a user and carried through the
// five-stage agent pipeline to a terminal status.
type Thought struct {
	Id                   uuid.UUID
	UserId               uuid.UUID
	Text                 string
	Status               ThoughtStatus
	AttemptCount         int
	Stages               StageOutputs
	Embedding            []float32
	ContextVersion       int
	CreatedAt            time.Time
	ProcessingStartedAt  *time.Time
	ProcessedAt          *time.Time
	FailureKind          *string
	FailureMessage       *string
}
