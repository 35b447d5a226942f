package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"thoughtstream/internal/errkind"
)

const geminiGenerateURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// GeminiProvider calls the Gemini REST generateContent endpoint directly,
// kept in the teacher's pkg/llm/ollama HTTP-call shape and repointed at
// Gemini the way pkg/embedding/gemini_provider.go already calls Gemini's
// REST embedding endpoint.
type GeminiProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey, model: model, httpClient: &http.Client{}}
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  geminiGenerationConfig  `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (p *GeminiProvider) Generate(ctx context.Context, messages []Message, system string, cacheHint bool, maxTokens int) (*Completion, error) {
	req := geminiRequest{
		Contents:         toGeminiContents(messages),
		GenerationConfig: geminiGenerationConfig{MaxOutputTokens: maxTokens},
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errkind.NewPermanent(errkind.PermanentInvalidPayload, "failed to encode gemini request", err)
	}

	url := fmt.Sprintf(geminiGenerateURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errkind.NewTransient(errkind.TransientNetwork, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

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
		return nil, classifyGeminiStatus(resp.StatusCode, raw)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errkind.NewTransient(errkind.TransientValidationRetry, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, errkind.NewPermanent(errkind.PermanentInvariant, "gemini returned no candidates", nil)
	}

	var content string
	for _, part := range parsed.Candidates[0].Content.Parts {
		content += part.Text
	}

	return &Completion{
		Content: content,
		Usage: Usage{
			InputTokens:  parsed.UsageMetadata.PromptTokenCount,
			OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

func (p *GeminiProvider) Capabilities() Capabilities {
	return Capabilities{SupportsPromptCache: false, MaxContextTokens: 1000000}
}

func toGeminiContents(messages []Message) []geminiContent {
	out := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out = append(out, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	return out
}

func classifyGeminiStatus(status int, body []byte) error {
	switch {
	case status == 401 || status == 403:
		return errkind.NewPermanent(errkind.PermanentInvalidPayload, "gemini authentication rejected", fmt.Errorf("%s", body))
	case status == 429 || status >= 500:
		return errkind.NewTransient(errkind.TransientRateLimited, fmt.Errorf("gemini status %d", status))
	default:
		return errkind.NewPermanent(errkind.PermanentInvariant, fmt.Sprintf("gemini returned status %d", status), fmt.Errorf("%s", body))
	}
}
