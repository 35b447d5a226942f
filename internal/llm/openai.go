package llm

import (
	"context"
	"errors"

	"thoughtstream/internal/errkind"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider wraps sashabaranov/go-openai behind the Provider interface,
// grounded on harperreed-memory/internal/llm/openai_client.go's
// CreateChatCompletion call shape.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message, system string, cacheHint bool, maxTokens int) (*Completion, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		Messages:  chatMessages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errkind.NewPermanent(errkind.PermanentInvariant, "openai returned no completion choices", nil)
	}

	return &Completion{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (p *OpenAIProvider) Capabilities() Capabilities {
	return Capabilities{SupportsPromptCache: false, MaxContextTokens: 128000}
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return errkind.NewPermanent(errkind.PermanentInvalidPayload, "openai authentication rejected", err)
		case apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500:
			return errkind.NewTransient(errkind.TransientRateLimited, err)
		}
	}
	return errkind.NewTransient(errkind.TransientNetwork, err)
}
