package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"thoughtstream/internal/errkind"
)

const geminiEmbedURL = "https://generativelanguage.googleapis.com/v1/models/%s:embedContent"

// GeminiProvider calls Gemini's REST embedContent endpoint, kept from the
// teacher's pkg/embedding/gemini_provider.go almost unchanged.
type GeminiProvider struct {
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:     apiKey,
		model:      "text-embedding-004",
		dimensions: 768,
		httpClient: &http.Client{},
	}
}

type geminiEmbedRequestPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequestContent struct {
	Parts []geminiEmbedRequestPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model    string                     `json:"model"`
	Content  geminiEmbedRequestContent  `json:"content"`
	TaskType string                     `json:"taskType,omitempty"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (p *GeminiProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	reqBody := geminiEmbedRequest{
		Model:    fmt.Sprintf("models/%s", p.model),
		Content:  geminiEmbedRequestContent{Parts: []geminiEmbedRequestPart{{Text: text}}},
		TaskType: "SEMANTIC_SIMILARITY",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errkind.NewPermanent(errkind.PermanentInvalidPayload, "failed to encode gemini embed request", err)
	}

	endpoint := fmt.Sprintf(geminiEmbedURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errkind.NewTransient(errkind.TransientNetwork, err)
	}
	httpReq.Header.Set("x-goog-api-key", p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, errkind.NewTransient(errkind.TransientNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.NewTransient(errkind.TransientNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == 401 || resp.StatusCode == 403 {
			return nil, errkind.NewPermanent(errkind.PermanentInvalidPayload, "gemini embedding auth rejected", fmt.Errorf("%s", raw))
		}
		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			return nil, errkind.NewTransient(errkind.TransientRateLimited, fmt.Errorf("gemini embed status %d", resp.StatusCode))
		}
		return nil, errkind.NewPermanent(errkind.PermanentInvariant, fmt.Sprintf("gemini embed returned status %d", resp.StatusCode), fmt.Errorf("%s", raw))
	}

	var parsed geminiEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errkind.NewTransient(errkind.TransientValidationRetry, err)
	}

	return parsed.Embedding.Values, nil
}

func (p *GeminiProvider) Dimensions() int { return p.dimensions }
