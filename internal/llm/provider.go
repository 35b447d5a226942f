// Package llm defines the uniform provider interface the five agent stages
// call through, generalized from the teacher's pkg/llm.LLMProvider.
package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

type Completion struct {
	Content string
	Usage   Usage
}

type Capabilities struct {
	SupportsPromptCache bool
	MaxContextTokens    int
}

// Provider is implemented by each backend adapter (anthropic, openai,
// gemini). cacheHint marks the system prompt as cacheable where the backend
// supports it; adapters that don't support it silently ignore the hint.
type Provider interface {
	Generate(ctx context.Context, messages []Message, system string, cacheHint bool, maxTokens int) (*Completion, error)
	Capabilities() Capabilities
}

// Option configures a Provider at construction time, generalized from the
// teacher's pkg/llm functional-options pattern.
type Option func(*Options)

type Options struct {
	Temperature float64
	Model       string
}

func NewOptions(opts ...Option) *Options {
	o := &Options{Temperature: 0.7}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}
