// Package usecases - query.go handles retrieval and answer generation.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// RefusalAnswer is what the model is told to reply when the context has no answer.
const RefusalAnswer = "I don't know"

// ErrEmptyQuery is returned for blank questions.
var ErrEmptyQuery = errors.New("empty query")

// AnswerQuery retrieves the k nearest chunks for query and scores each one as the
// dot product of the query vector and the chunk's freshly embedded query vector.
// Order comes from idx.Search; scores never re-rank.
func AnswerQuery(ctx context.Context, idx ports.Index, embedder ports.Embedder, query string, k int) ([]entities.ScoredChunk, error) {
	if idx == nil {
		return nil, entities.ErrEmptyKnowledgeBase
	}
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := idx.Search(queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]entities.ScoredChunk, len(hits))
	for i, hit := range hits {
		chunkVec, err := embedder.EmbedQuery(ctx, hit.Chunk.Text)
		if err != nil {
			return nil, err
		}
		score, err := dot(queryVec, chunkVec)
		if err != nil {
			return nil, err
		}
		results[i] = entities.ScoredChunk{Chunk: hit.Chunk, Distance: hit.Distance, Score: score}
	}
	return results, nil
}

// BuildPrompt restricts the model to the retrieved context.
func BuildPrompt(query string, context []string) string {
	var sb strings.Builder
	sb.WriteString("Use ONLY the provided context.\n")
	sb.WriteString("If answer is not found, reply: \"" + RefusalAnswer + "\".\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(context, "\n\n"))
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(query)
	return sb.String()
}

// AskUseCase answers questions against the knowledge base held by a session.
type AskUseCase struct {
	embedder ports.Embedder
	llm      ports.LLMService
	topK     int
	log      logr.Logger
}

// NewAskUseCase creates an AskUseCase. embedder must be the one the session's
// knowledge base was built with.
func NewAskUseCase(embedder ports.Embedder, llm ports.LLMService, topK int, log logr.Logger) *AskUseCase {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &AskUseCase{
		embedder: embedder,
		llm:      llm,
		topK:     topK,
		log:      log.WithName("ask"),
	}
}

// Ask retrieves context for query, asks the model and records the exchange in the session history.
func (uc *AskUseCase) Ask(ctx context.Context, session *Session, query string) (*entities.Answer, error) {
	idx, err := session.KnowledgeBase()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	results, err := AnswerQuery(ctx, idx, uc.embedder, query, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	prompt := BuildPrompt(query, texts)

	uc.log.V(1).Info("asking model", "session", session.ID, "chunks", len(results))
	text, err := uc.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	session.Record(entities.RoleUser, query)
	session.Record(entities.RoleAssistant, text)

	return &entities.Answer{
		Query:   query,
		Text:    text,
		Prompt:  prompt,
		Results: results,
	}, nil
}

func dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", entities.ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}
