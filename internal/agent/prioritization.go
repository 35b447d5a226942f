package agent

import (
	"context"
	"fmt"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/llm"
)

// PrioritizationStage is agent A5: prioritization, grounded on agents.py's
// prioritize(). It is the final stage; its output is the one surfaced to
// the user first.
type PrioritizationStage struct {
	Provider llm.Provider
}

func (s *PrioritizationStage) Run(ctx context.Context, thoughtText string, actionPlan *entity.ActionPlanResult, valueImpact *entity.ValueImpactResult, userContext entity.UserContext) (*entity.PriorityResult, error) {
	system, err := buildSystemPrompt(userContext.Profile)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Determine the priority for this thought:

THOUGHT: %q
ACTION PLAN: %s
VALUE IMPACT: %s

USER GOALS: %s

Return JSON:
{
  "priority_level": "Critical/High/Medium/Low/Defer",
  "urgency_reasoning": "",
  "strategic_fit": "how this fits user's goals",
  "momentum_impact": "will this create positive momentum?",
  "recommended_timeline": {"start": "when to start", "duration": "how long to complete", "checkpoints": ["milestones to track"]},
  "dependencies": ["what needs to happen first"],
  "risk_assessment": "what could go wrong",
  "confidence": "low/medium/high",
  "final_recommendation": "clear next step"
}

Critical: Addresses urgent challenge or high-value opportunity
High: Important for goals, start this week
Medium: Valuable, schedule within month
Low: Nice to have, no rush
Defer: Not aligned with current priorities

RESPOND WITH ONLY JSON, NO MARKDOWN OR ADDITIONAL TEXT.`, thoughtText, mustJSON(actionPlan), mustJSON(valueImpact), mustJSON(userContext.Profile.Goals))

	return runStage[entity.PriorityResult](ctx, s.Provider, system, prompt, 1500, true)
}
