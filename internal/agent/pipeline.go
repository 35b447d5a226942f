package agent

import (
	"context"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/llm"
)

// Pipeline bundles the five stages behind one dependency so the orchestrator
// only has to hold one value, mirroring agents.py's AgentPipeline grouping
// classify/analyze/assess_value/plan_actions/prioritize under one object —
// the orchestrator still calls one stage at a time so it can persist and
// publish progress between each, per §4.3.
type Pipeline struct {
	Classification *ClassificationStage
	Analysis       *AnalysisStage
	ValueImpact    *ValueImpactStage
	ActionPlan     *ActionPlanStage
	Prioritization *PrioritizationStage
}

func New(provider llm.Provider) *Pipeline {
	return &Pipeline{
		Classification: &ClassificationStage{Provider: provider},
		Analysis:       &AnalysisStage{Provider: provider},
		ValueImpact:    &ValueImpactStage{Provider: provider},
		ActionPlan:     &ActionPlanStage{Provider: provider},
		Prioritization: &PrioritizationStage{Provider: provider},
	}
}

// RunAll executes all five stages sequentially without persisting
// intermediate state, returning the full output set in one call.
// internal/pipeline does not use it: the orchestrator calls the stages one by
// one so it can persist and publish progress between them.
func (p *Pipeline) RunAll(ctx context.Context, thoughtText string, userContext entity.UserContext) (entity.StageOutputs, error) {
	var out entity.StageOutputs

	classification, err := p.Classification.Run(ctx, thoughtText, userContext)
	if err != nil {
		return out, err
	}
	out.Classification = classification

	analysis, err := p.Analysis.Run(ctx, thoughtText, classification, userContext)
	if err != nil {
		return out, err
	}
	out.Analysis = analysis

	valueImpact, err := p.ValueImpact.Run(ctx, thoughtText, classification, analysis, userContext)
	if err != nil {
		return out, err
	}
	out.ValueImpact = valueImpact

	actionPlan, err := p.ActionPlan.Run(ctx, thoughtText, analysis, valueImpact, userContext)
	if err != nil {
		return out, err
	}
	out.ActionPlan = actionPlan

	priority, err := p.Prioritization.Run(ctx, thoughtText, actionPlan, valueImpact, userContext)
	if err != nil {
		return out, err
	}
	out.Priority = priority

	return out, nil
}
