package agent

import (
	"context"
	"fmt"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/llm"
)

// ActionPlanStage is agent A4: action planning, grounded on agents.py's
// plan_actions(). Timing hints are expected to draw on the user's
// constraints and recent energy-peak patterns, carried through in the
// prompt rather than post-processed in Go.
type ActionPlanStage struct {
	Provider llm.Provider
}

func (s *ActionPlanStage) Run(ctx context.Context, thoughtText string, analysis *entity.AnalysisResult, valueImpact *entity.ValueImpactResult, userContext entity.UserContext) (*entity.ActionPlanResult, error) {
	system, err := buildSystemPrompt(userContext.Profile)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Create a realistic action plan for this thought:

THOUGHT: %q
ANALYSIS: %s
VALUE IMPACT: %s

USER CONSTRAINTS: %s
ENERGY PEAKS: %s

Return JSON:
{
  "quick_wins": [{"action": "", "duration": "<30min", "timing": "when to do this", "outcome": "expected result"}],
  "main_actions": [{"action": "", "duration": "", "prerequisites": [], "obstacles": [], "mitigation": "", "timing": "best time based on energy patterns"}],
  "delegation_opportunities": [{"task": "", "who": "who could help", "why": "benefit of delegating"}],
  "avoid": ["things NOT to do and why"],
  "success_metrics": ["how to know it's working"]
}

Be specific and actionable. Consider the user's time and energy constraints.`, thoughtText, mustJSON(analysis), mustJSON(valueImpact), mustJSON(userContext.Profile.Constraints), mustJSON(userContext.Profile.RecentPatterns.EnergyPeaks))

	return runStage[entity.ActionPlanResult](ctx, s.Provider, system, prompt, 2000, true)
}
