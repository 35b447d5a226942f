package llm

import (
	"context"
	"errors"

	"thoughtstream/internal/errkind"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider wraps anthropic-sdk-go behind the Provider interface,
// grounded on XiaoConstantine-dspy-go/pkg/llms/anthropic.go's Messages.New
// call shape and errors.As(err, &apiErr) status-code classification.
type AnthropicProvider struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{client: &client, model: anthropic.Model(model)}
}

func (p *AnthropicProvider) Generate(ctx context.Context, messages []Message, system string, cacheHint bool, maxTokens int) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: int64(maxTokens),
		Messages:  toAnthropicMessages(messages),
	}
	if system != "" {
		block := anthropic.TextBlockParam{Text: system}
		if cacheHint {
			block.CacheControl = anthropic.NewCacheControlEphemeralParam()
		}
		params.System = []anthropic.TextBlockParam{block}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}
	if message == nil || len(message.Content) == 0 {
		return nil, errkind.NewPermanent(errkind.PermanentInvariant, "anthropic returned an empty response", nil)
	}

	var content string
	for _, block := range message.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &Completion{
		Content: content,
		Usage: Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}

func (p *AnthropicProvider) Capabilities() Capabilities {
	return Capabilities{SupportsPromptCache: true, MaxContextTokens: 200000}
}

func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(block))
		default:
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return errkind.NewPermanent(errkind.PermanentInvalidPayload, "anthropic authentication rejected", err)
		case apiErr.StatusCode == 429 || apiErr.StatusCode >= 500:
			return errkind.NewTransient(errkind.TransientRateLimited, err)
		}
	}
	return errkind.NewTransient(errkind.TransientNetwork, err)
}
