package agent

import (
	"context"
	"fmt"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/llm"
)

// ValueImpactStage is agent A3: value impact assessment across the five
// value dimensions, grounded on agents.py's assess_value().
type ValueImpactStage struct {
	Provider llm.Provider
}

func (s *ValueImpactStage) Run(ctx context.Context, thoughtText string, classification *entity.ClassificationResult, analysis *entity.AnalysisResult, userContext entity.UserContext) (*entity.ValueImpactResult, error) {
	system, err := buildSystemPrompt(userContext.Profile)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Assess the value impact of pursuing this thought:

THOUGHT: %q
CLASSIFICATION: %s
ANALYSIS: %s

USER'S VALUES RANKING: %s

Evaluate impact on each dimension (0-10 scale):

Return JSON:
{
  "economic_value": {"score": <0-10>, "reasoning": "", "timeframe": "immediate/short-term/long-term", "confidence": "low/medium/high"},
  "relational_value": {"score": <0-10>, "reasoning": "", "affected_relationships": [], "confidence": "low/medium/high"},
  "legacy_value": {"score": <0-10>, "reasoning": "", "long_term_impact": "", "confidence": "low/medium/high"},
  "health_value": {"score": <0-10>, "reasoning": "", "physical_mental": "physical/mental/both", "confidence": "low/medium/high"},
  "growth_value": {"score": <0-10>, "reasoning": "", "learning_areas": [], "confidence": "low/medium/high"},
  "weighted_total": <calculated using the user's values ranking>,
  "overall_assessment": ""
}

Be realistic and consider both positive and negative impacts.`, thoughtText, mustJSON(classification), mustJSON(analysis), mustJSON(userContext.Profile.ValueWeights))

	result, err := runStage[entity.ValueImpactResult](ctx, s.Provider, system, prompt, 2000, true)
	if err != nil {
		return nil, err
	}

	// The LLM's own weighted_total is advisory; recompute it deterministically
	// from the user's value weights so two runs with identical scores always
	// agree, matching §4.4's WeightedTotal definition.
	result.WeightedTotal = weightedTotal(result, userContext.Profile.ValueWeights)
	return result, nil
}

func weightedTotal(r *entity.ValueImpactResult, w entity.ValueWeights) float64 {
	sum := w.Sum()
	if sum == 0 {
		return 0
	}
	weighted := r.EconomicValue.Score*w.Economic +
		r.RelationalValue.Score*w.Relational +
		r.LegacyValue.Score*w.Legacy +
		r.HealthValue.Score*w.Health +
		r.GrowthValue.Score*w.Growth
	return weighted / sum
}
