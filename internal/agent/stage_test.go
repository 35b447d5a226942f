package agent

import (
	"context"
	"testing"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

var _ llm.Provider = (*mockProvider)(nil)

func (m *mockProvider) Generate(ctx context.Context, messages []llm.Message, system string, cacheHint bool, maxTokens int) (*llm.Completion, error) {
	args := m.Called(ctx, messages, system, cacheHint, maxTokens)
	completion, _ := args.Get(0).(*llm.Completion)
	return completion, args.Error(1)
}

func (m *mockProvider) Capabilities() llm.Capabilities {
	return llm.Capabilities{SupportsPromptCache: true, MaxContextTokens: 200000}
}

const validClassificationJSON = `{
  "type": "task",
  "urgency": "soon",
  "entities": {"people": [], "dates": [], "places": [], "topics": ["work"]},
  "emotional_tone": "neutral",
  "implied_needs": ["time"],
  "complexity": "simple"
}`

func TestClassificationStage_ParsesValidResponse(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, true, 1000).
		Return(&llm.Completion{Content: validClassificationJSON}, nil).Once()

	stage := &ClassificationStage{Provider: provider}
	result, err := stage.Run(context.Background(), "finish the report", entity.UserContext{})

	require.NoError(t, err)
	assert.Equal(t, "task", result.Type)
	assert.Equal(t, "soon", result.Urgency)
	provider.AssertNumberOfCalls(t, "Generate", 1)
}

func TestClassificationStage_StripsCodeFence(t *testing.T) {
	provider := new(mockProvider)
	fenced := "```json\n" + validClassificationJSON + "\n```"
	provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, true, 1000).
		Return(&llm.Completion{Content: fenced}, nil).Once()

	stage := &ClassificationStage{Provider: provider}
	result, err := stage.Run(context.Background(), "finish the report", entity.UserContext{})

	require.NoError(t, err)
	assert.Equal(t, "task", result.Type)
}

func TestClassificationStage_RetriesOnMalformedJSONThenSucceeds(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, true, 1000).
		Return(&llm.Completion{Content: "not json at all"}, nil).Once()
	provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, true, 1000).
		Return(&llm.Completion{Content: validClassificationJSON}, nil).Once()

	stage := &ClassificationStage{Provider: provider}
	result, err := stage.Run(context.Background(), "finish the report", entity.UserContext{})

	require.NoError(t, err)
	assert.Equal(t, "task", result.Type)
	provider.AssertNumberOfCalls(t, "Generate", 2)
}

func TestClassificationStage_RetriesOnValidationFailureThenFails(t *testing.T) {
	provider := new(mockProvider)
	invalid := `{"type": "not-a-real-type", "urgency": "soon", "entities": {}, "emotional_tone": "neutral", "complexity": "simple"}`
	provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, true, 1000).
		Return(&llm.Completion{Content: invalid}, nil)

	stage := &ClassificationStage{Provider: provider}
	_, err := stage.Run(context.Background(), "finish the report", entity.UserContext{})

	require.Error(t, err)
	provider.AssertNumberOfCalls(t, "Generate", maxStageAttempts)
}

func TestValueImpactStage_RecomputesWeightedTotal(t *testing.T) {
	provider := new(mockProvider)
	payload := `{
  "economic_value": {"score": 8, "reasoning": "", "timeframe": "short-term", "confidence": "high"},
  "relational_value": {"score": 2, "reasoning": "", "affected_relationships": [], "confidence": "low"},
  "legacy_value": {"score": 0, "reasoning": "", "long_term_impact": "", "confidence": "low"},
  "health_value": {"score": 0, "reasoning": "", "physical_mental": "mental", "confidence": "low"},
  "growth_value": {"score": 0, "reasoning": "", "learning_areas": [], "confidence": "low"},
  "weighted_total": 999,
  "overall_assessment": "ok"
}`
	provider.On("Generate", mock.Anything, mock.Anything, mock.Anything, true, 2000).
		Return(&llm.Completion{Content: payload}, nil).Once()

	stage := &ValueImpactStage{Provider: provider}
	userContext := entity.UserContext{
		Profile: entity.UserContextProfile{
			ValueWeights: entity.ValueWeights{Economic: 1, Relational: 1, Legacy: 1, Health: 1, Growth: 1},
		},
	}

	result, err := stage.Run(context.Background(), "thought", &entity.ClassificationResult{}, &entity.AnalysisResult{}, userContext)

	require.NoError(t, err)
	assert.InDelta(t, 2.0, result.WeightedTotal, 0.0001)
}
