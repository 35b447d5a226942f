// Package agent implements the five-stage thought analysis pipeline
// (classification, analysis, value impact, action plan, prioritization),
// generalized from original_source/batch_processor/agents.py's AgentPipeline
// into five Go stage types sharing one retrying, validating call path.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/errkind"
	"thoughtstream/internal/llm"
	"thoughtstream/internal/retry"

	"github.com/go-playground/validator/v10"
)

const (
	// maxStageAttempts is 1 initial attempt plus the 2 internal retries
	// §4.5 allows before a stage failure becomes permanent.
	maxStageAttempts = 3
	stageRetryBase   = 500 * time.Millisecond
)

var validate = validator.New()

// systemPromptBase is shared by all five stages, kept verbatim from
// agents.py's _create_system_prompt base_instruction.
const systemPromptBase = `You are an AI agent specialized in analyzing personal thoughts.
Your role is to provide deep, contextual analysis based on the user's life circumstances,
goals, constraints, and values. Always be honest, insightful, and actionable.`

// buildSystemPrompt appends the user's profile as indented JSON, mirroring
// _create_system_prompt's f"{base_instruction}\n\nUSER CONTEXT:\n{...}".
func buildSystemPrompt(profile entity.UserContextProfile) (string, error) {
	raw, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", errkind.NewPermanent(errkind.PermanentInvalidPayload, "failed to encode user context", err)
	}
	return systemPromptBase + "\n\nUSER CONTEXT:\n" + string(raw), nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// runStage drives one LLM call through its internal retry budget. A parse or
// validation failure re-sends the original prompt with the error appended,
// matching _generate_json_response's code-fence-stripping + json.loads retry
// loop; a transient provider error (rate limit, network) retries unchanged.
func runStage[T any](ctx context.Context, provider llm.Provider, systemPrompt, userPrompt string, maxTokens int, cacheHint bool) (*T, error) {
	prompt := userPrompt
	var result T

	err := retry.Do(ctx, maxStageAttempts, stageRetryBase, isRetryable, func(attempt int) error {
		completion, genErr := provider.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, systemPrompt, cacheHint, maxTokens)
		if genErr != nil {
			return genErr
		}

		content := stripCodeFence(completion.Content)

		var parsed T
		if jsonErr := json.Unmarshal([]byte(content), &parsed); jsonErr != nil {
			prompt = userPrompt + fmt.Sprintf("\n\nYour previous response failed to parse as JSON: %v\nRespond with ONLY valid JSON, no markdown fences.", jsonErr)
			return errkind.NewTransient(errkind.TransientValidationRetry, jsonErr)
		}
		if validErr := validate.Struct(&parsed); validErr != nil {
			prompt = userPrompt + fmt.Sprintf("\n\nYour previous response failed validation: %v\nRespond with ONLY valid JSON matching the required shape.", validErr)
			return errkind.NewTransient(errkind.TransientValidationRetry, validErr)
		}

		result = parsed
		return nil
	})
	if err != nil {
		return nil, classifyStageFailure(err)
	}
	return &result, nil
}

func isRetryable(err error) bool {
	var t *errkind.Transient
	return errors.As(err, &t)
}

// classifyStageFailure maps the error runStage gives up on to §4.5's two
// stage-failure classes: a *errkind.Permanent passes through unchanged. An
// exhausted *errkind.Transient normally bubbles up as-is (the caller's
// TransientFail), except TransientValidationRetry: once the internal retry
// budget for a parse/validation failure is spent, §4.4/§4.5 both call that a
// permanent failure, not a transient one, so it gets rewrapped rather than
// handed back to the broker for another round of deliveries. Anything else
// is wrapped as a permanent invariant violation.
func classifyStageFailure(err error) error {
	var p *errkind.Permanent
	if errors.As(err, &p) {
		return err
	}
	var t *errkind.Transient
	if errors.As(err, &t) {
		if t.Kind == errkind.TransientValidationRetry {
			return errkind.NewPermanent(errkind.PermanentInvalidPayload, "stage output failed to parse or validate after internal retries", t.Err)
		}
		return err
	}
	return errkind.NewPermanent(errkind.PermanentInvariant, "agent stage failed", err)
}

func mustJSON(v interface{}) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}
