package agent

import (
	"context"
	"fmt"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/llm"
)

// ClassificationStage is agent A1: classification & extraction. It is the
// only stage that does not depend on any prior stage's output, grounded on
// agents.py's classify().
type ClassificationStage struct {
	Provider llm.Provider
}

func (s *ClassificationStage) Run(ctx context.Context, thoughtText string, userContext entity.UserContext) (*entity.ClassificationResult, error) {
	system, err := buildSystemPrompt(userContext.Profile)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analyze this thought and extract structured information:

THOUGHT: %q

Return ONLY a valid JSON object with these exact fields (no additional text):
- type: (task/problem/idea/question/observation/emotion)
- urgency: (immediate/soon/eventually/never)
- entities: {people: [], dates: [], places: [], topics: []}
- emotional_tone: (excited/anxious/frustrated/neutral/curious/overwhelmed/hopeful)
- implied_needs: [list of what the person might need]
- complexity: (simple/moderate/complex)

Be specific and context-aware. Consider the user's background. RESPOND WITH ONLY JSON, NO MARKDOWN OR ADDITIONAL TEXT.`, thoughtText)

	return runStage[entity.ClassificationResult](ctx, s.Provider, system, prompt, 1000, true)
}
