package agent

import (
	"context"
	"fmt"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/llm"
)

// AnalysisStage is agent A2: contextual analysis, grounded on agents.py's
// analyze_deeply().
type AnalysisStage struct {
	Provider llm.Provider
}

func (s *AnalysisStage) Run(ctx context.Context, thoughtText string, classification *entity.ClassificationResult, userContext entity.UserContext) (*entity.AnalysisResult, error) {
	system, err := buildSystemPrompt(userContext.Profile)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Provide deep contextual analysis of this thought:

THOUGHT: %q
CLASSIFICATION: %s

Return ONLY a valid JSON object with these exact fields (no markdown, no additional text):
- goal_alignment: {aligned_goals: [], conflicting_goals: [], reasoning: ""}
- underlying_needs: [deeper needs beyond surface thought]
- pattern_connections: [how this relates to user's recent challenges/patterns]
- realistic_assessment: {feasibility: "", given_constraints: "", time_required: ""}
- unspoken_factors: [important considerations the user may not have mentioned]
- opportunity_cost: ""

Be honest, insightful, and consider the user's complete context. RESPOND WITH ONLY JSON, NO MARKDOWN OR ADDITIONAL TEXT.`, thoughtText, mustJSON(classification))

	return runStage[entity.AnalysisResult](ctx, s.Provider, system, prompt, 1500, true)
}
