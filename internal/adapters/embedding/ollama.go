// Package embedding provides embedder adapters.
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"
	"github.com/ollama/ollama/api"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "all-minilm"

	// batchSize bounds the number of texts per embed request.
	batchSize = 32
)

// OllamaEmbedder implements ports.Embedder using a local Ollama server.
type OllamaEmbedder struct {
	client *api.Client
	model  string
	log    logr.Logger
}

// NewOllamaEmbedder creates an embedder for model served at baseURL.
func NewOllamaEmbedder(baseURL, model string, log logr.Logger) (*OllamaEmbedder, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama url: %w", err)
	}

	return &OllamaEmbedder{
		client: api.NewClient(base, &http.Client{Timeout: 60 * time.Second}),
		model:  model,
		log:    log.WithName("ollama-embedder"),
	}, nil
}

// Name identifies the model.
func (e *OllamaEmbedder) Name() string {
	return "ollama:" + e.model
}

// EmbedDocuments embeds texts in batches, preserving order.
func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		e.log.V(1).Info("embedding batch", "model", e.model, "from", start, "to", end)
		vectors, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedQuery embeds a single text.
func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vectors[0], nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
