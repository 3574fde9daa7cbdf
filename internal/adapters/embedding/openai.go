package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder implements ports.Embedder against any OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedder struct {
	llm   *openai.LLM
	model string
}

// NewOpenAIEmbedder creates an embedder. An empty baseURL uses the OpenAI API.
func NewOpenAIEmbedder(baseURL, model, apiKey string) (*OpenAIEmbedder, error) {
	if model == "" {
		model = "text-embedding-3-small"
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return &OpenAIEmbedder{llm: llm, model: model}, nil
}

// Name identifies the model.
func (e *OpenAIEmbedder) Name() string {
	return "openai:" + e.model
}

// EmbedDocuments embeds texts in one request per batch.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		vectors, err := e.llm.CreateEmbedding(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedQuery embeds a single text.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vectors[0], nil
}
