package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator answers a single-turn prompt with the given per-account API key.
type Generator interface {
	Generate(ctx context.Context, apiKey, model, prompt string) (string, error)
}

// GeminiClient calls the Gemini API. A client is constructed per call:
// the underlying SDK client is cheap and holds no state beyond the API
// key, which differs per account.
type GeminiClient struct{}

var _ Generator = (*GeminiClient)(nil)

func NewGeminiClient() *GeminiClient {
	return &GeminiClient{}
}

func (g *GeminiClient) Generate(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	resp, err := client.GenerativeModel(model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// IsQuotaError reports whether a generation failure is a quota or
// rate-limit rejection, which gets its own user-facing diagnostic.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "429") ||
		strings.Contains(strings.ToLower(msg), "quota")
}
