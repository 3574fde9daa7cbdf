package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// DefaultGeminiURL is Gemini's OpenAI-compatible endpoint.
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// OpenAIModel implements ports.LLMService against an OpenAI-compatible
// chat completions endpoint.
type OpenAIModel struct {
	llm         *openai.LLM
	temperature float64
}

// NewOpenAIModel creates a chat adapter. apiKey must be non-empty; callers
// resolve it from the environment before getting here.
func NewOpenAIModel(baseURL, model, apiKey string, temperature float64) (*OpenAIModel, error) {
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing api key for %s", baseURL)
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(strings.TrimSuffix(baseURL, "/")),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return &OpenAIModel{llm: llm, temperature: temperature}, nil
}

// Generate sends prompt as a single user message and returns the reply text.
func (m *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, llms.WithTemperature(m.temperature))
	if err != nil {
		return "", fmt.Errorf("calling chat model: %w", err)
	}
	return answer, nil
}
