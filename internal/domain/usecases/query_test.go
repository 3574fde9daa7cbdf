package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
)

func hitsFor(texts ...string) []entities.SearchHit {
	hits := make([]entities.SearchHit, len(texts))
	for i, text := range texts {
		hits[i] = entities.SearchHit{Chunk: entities.Chunk{Index: i, Text: text}, Distance: float32(i)}
	}
	return hits
}

func TestAnswerQuery_ScoresAreRecomputedDotProducts(t *testing.T) {
	vectors := map[string][]float32{
		"query": {1, 2},
		"alpha": {3, 0},
		"beta":  {0, 5},
	}
	embedder := &mockEmbedder{embedFn: func(text string) ([]float32, error) { return vectors[text], nil }}
	idx := &mockIndex{hits: hitsFor("alpha", "beta")}

	results, err := AnswerQuery(context.Background(), idx, embedder, "query", 4)
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Order follows the index, not the score.
	if results[0].Chunk.Text != "alpha" || results[0].Score != 3 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Chunk.Text != "beta" || results[1].Score != 10 {
		t.Errorf("unexpected second result %+v", results[1])
	}
	want := []string{"query", "alpha", "beta"}
	if strings.Join(embedder.queryInputs, ",") != strings.Join(want, ",") {
		t.Errorf("expected EmbedQuery on query then each chunk, got %v", embedder.queryInputs)
	}
}

func TestAnswerQuery_DefaultK(t *testing.T) {
	var gotK int
	idx := &mockIndex{searchFn: func(q []float32, k int) ([]entities.SearchHit, error) {
		gotK = k
		return nil, nil
	}}

	if _, err := AnswerQuery(context.Background(), idx, &mockEmbedder{}, "q", 0); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if gotK != DefaultTopK {
		t.Errorf("expected k=%d, got %d", DefaultTopK, gotK)
	}
}

func TestAnswerQuery_NilIndex(t *testing.T) {
	_, err := AnswerQuery(context.Background(), nil, &mockEmbedder{}, "q", 4)
	if !errors.Is(err, entities.ErrEmptyKnowledgeBase) {
		t.Errorf("expected ErrEmptyKnowledgeBase, got %v", err)
	}
}

func TestAnswerQuery_EmbeddingErrorPropagates(t *testing.T) {
	boom := errors.New("timeout")
	embedder := &mockEmbedder{embedFn: func(string) ([]float32, error) { return nil, boom }}

	_, err := AnswerQuery(context.Background(), &mockIndex{hits: hitsFor("a")}, embedder, "q", 4)
	if err != boom {
		t.Errorf("expected embedding error unchanged, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("What is the capital?", []string{"Paris is the capital of France.", "Berlin is in Germany."})

	want := "Use ONLY the provided context.\n" +
		"If answer is not found, reply: \"I don't know\".\n\n" +
		"Context:\n" +
		"Paris is the capital of France.\n\nBerlin is in Germany.\n\n" +
		"Question:\n" +
		"What is the capital?"
	if prompt != want {
		t.Errorf("unexpected prompt:\n%s", prompt)
	}
}

func TestAskUseCase_EmptyKnowledgeBase(t *testing.T) {
	embedder := &mockEmbedder{}
	llm := &mockLLM{}
	uc := NewAskUseCase(embedder, llm, 4, logr.Discard())

	_, err := uc.Ask(context.Background(), NewSession(), "anything?")
	if !errors.Is(err, entities.ErrEmptyKnowledgeBase) {
		t.Fatalf("expected ErrEmptyKnowledgeBase, got %v", err)
	}
	if embedder.queryCalls != 0 || len(llm.prompts) != 0 {
		t.Error("nothing should be called without a knowledge base")
	}
}

func TestAskUseCase_ReturnsAnswerAndRecordsHistory(t *testing.T) {
	llm := &mockLLM{response: "Paris"}
	uc := NewAskUseCase(&mockEmbedder{}, llm, 4, logr.Discard())
	session := NewSession()
	session.Load(&BuildResult{Index: &mockIndex{hits: hitsFor("Paris is the capital of France.")}, Fingerprint: "42"})

	answer, err := uc.Ask(context.Background(), session, "What is the capital of France?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}

	if answer.Text != "Paris" {
		t.Errorf("unexpected answer: %s", answer.Text)
	}
	if !strings.Contains(llm.prompts[0], "Paris is the capital of France.") {
		t.Error("prompt should contain the retrieved chunk")
	}
	history := session.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Role != entities.RoleUser || history[1].Content != "Paris" {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestAskUseCase_LLMErrorDoesNotRecordHistory(t *testing.T) {
	uc := NewAskUseCase(&mockEmbedder{}, &mockLLM{err: errors.New("quota")}, 4, logr.Discard())
	session := NewSession()
	session.Load(&BuildResult{Index: &mockIndex{hits: hitsFor("ctx")}})

	if _, err := uc.Ask(context.Background(), session, "q"); err == nil {
		t.Fatal("expected error")
	}
	if len(session.History()) != 0 {
		t.Error("failed exchange should not be recorded")
	}
}

func TestAskUseCase_EmptyQuery(t *testing.T) {
	uc := NewAskUseCase(&mockEmbedder{}, &mockLLM{}, 4, logr.Discard())
	session := NewSession()
	session.Load(&BuildResult{Index: &mockIndex{}})

	if _, err := uc.Ask(context.Background(), session, "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}
