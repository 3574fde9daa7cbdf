// Package llm provides language model adapters.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaModel implements ports.LLMService using a local Ollama server.
type OllamaModel struct {
	client      *api.Client
	model       string
	temperature float64
}

// NewOllamaModel creates a chat adapter for model served at baseURL.
func NewOllamaModel(baseURL, model string, temperature float64) (*OllamaModel, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama url: %w", err)
	}

	return &OllamaModel{
		client:      api.NewClient(base, &http.Client{Timeout: 300 * time.Second}),
		model:       model,
		temperature: temperature,
	}, nil
}

// Generate returns the full (non-streamed) completion for prompt.
func (m *OllamaModel) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   m.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]interface{}{"temperature": m.temperature},
	}

	var sb strings.Builder
	err := m.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	return sb.String(), nil
}
