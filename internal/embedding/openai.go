package embedding

import (
	"context"
	"errors"

	"thoughtstream/internal/errkind"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider wraps go-openai's CreateEmbeddings, grounded on
// harperreed-memory/internal/llm/openai_client.go's GenerateEmbedding.
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: openai.SmallEmbedding3}
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: p.model,
	})
	if err != nil {
		return nil, classifyOpenAIEmbedError(err)
	}
	if len(resp.Data) == 0 {
		return nil, errkind.NewPermanent(errkind.PermanentInvariant, "openai returned no embeddings", nil)
	}
	return resp.Data[0].Embedding, nil
}

func (p *OpenAIProvider) Dimensions() int { return 1536 }

func classifyOpenAIEmbedError(err error) error {
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
