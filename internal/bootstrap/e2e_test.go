package bootstrap

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/go-logr/logr"

	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/extractor/extractortest"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/usecases"
)

var vocabulary = []string{"what", "is", "the", "capital", "of", "france", "paris", "rome", "italy"}

// wordEmbedder marks which vocabulary words a text contains and normalises
// the result. Other words are ignored.
type wordEmbedder struct {
	mu       sync.Mutex
	docCalls int
}

func (e *wordEmbedder) Name() string { return "words" }

func (e *wordEmbedder) embed(text string) []float32 {
	present := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) }) {
		present[w] = true
	}

	v := make([]float32, len(vocabulary))
	var norm float64
	for i, w := range vocabulary {
		if present[w] {
			v[i] = 1
			norm++
		}
	}
	if norm > 0 {
		for i := range v {
			v[i] /= float32(math.Sqrt(norm))
		}
	}
	return v
}

func (e *wordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.docCalls++
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *wordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

type recordingLLM struct {
	prompts []string
}

func (m *recordingLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return "Paris.", nil
}

const (
	parisSentence = "Paris is the capital of France."
	romeSentence  = "Rome is the capital of Italy."
	filler        = "Bananas grow in tropical climates and need plenty rain."
)

func documents() entities.DocumentSet {
	paragraphs := []string{parisSentence}
	for i := 0; i < 20; i++ {
		paragraphs = append(paragraphs, filler)
	}
	return entities.DocumentSet{
		entities.NewDocument("paris.docx", extractortest.DOCX(paragraphs...)),
		entities.NewDocument("rome.docx", extractortest.DOCX(romeSentence)),
	}
}

func TestEndToEnd_SingleSmallDocument(t *testing.T) {
	ctx := context.Background()
	model := &recordingLLM{}

	app, err := New(ctx, testConfig(t), logr.Discard(), WithEmbedder(&wordEmbedder{}), WithLLM(model))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ask, _ := app.NewAskUseCase()

	res, err := app.Pipeline.BuildOrLoad(ctx, entities.DocumentSet{
		entities.NewDocument("france.docx", extractortest.DOCX(parisSentence)),
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	session := usecases.NewSession()
	session.Load(res)

	answer, err := ask.Ask(ctx, session, "What is the capital of France?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if len(answer.Results) != 1 || answer.Results[0].Chunk.Text != parisSentence {
		t.Errorf("unexpected results %+v", answer.Results)
	}
	if !strings.Contains(model.prompts[0], "Context:\n"+parisSentence+"\n\nQuestion:\nWhat is the capital of France?") {
		t.Errorf("unexpected prompt %q", model.prompts[0])
	}
}

func TestEndToEnd_AnswerFromDocuments(t *testing.T) {
	ctx := context.Background()
	embedder := &wordEmbedder{}
	model := &recordingLLM{}

	app, err := New(ctx, testConfig(t), logr.Discard(), WithEmbedder(embedder), WithLLM(model))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ask, err := app.NewAskUseCase()
	if err != nil {
		t.Fatalf("ask use case: %v", err)
	}

	res, err := app.Pipeline.BuildOrLoad(ctx, documents())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if res.FromCache || res.Chunks < 2 {
		t.Fatalf("expected a fresh multi-chunk build, got %+v", res)
	}

	session := usecases.NewSession()
	session.Load(res)

	answer, err := ask.Ask(ctx, session, "What is the capital of France?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}

	if want := min(usecases.DefaultTopK, res.Chunks); len(answer.Results) != want {
		t.Errorf("expected %d results, got %d", want, len(answer.Results))
	}
	if !strings.Contains(answer.Results[0].Chunk.Text, parisSentence) {
		t.Errorf("top chunk should contain the answer sentence, got %q", answer.Results[0].Chunk.Text)
	}
	if len(model.prompts) != 1 || !strings.Contains(model.prompts[0], parisSentence) {
		t.Error("prompt should carry the retrieved sentence")
	}
	if answer.Text != "Paris." || len(session.History()) != 2 {
		t.Errorf("unexpected answer %q or history %d", answer.Text, len(session.History()))
	}
}

func TestEndToEnd_SecondBuildFromCache(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first := &wordEmbedder{}
	app, err := New(ctx, cfg, logr.Discard(), WithEmbedder(first))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	built, err := app.Pipeline.BuildOrLoad(ctx, documents())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// A fresh process sharing the cache directory.
	second := &wordEmbedder{}
	app, err = New(ctx, cfg, logr.Discard(), WithEmbedder(second))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	loaded, err := app.Pipeline.BuildOrLoad(ctx, documents())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !loaded.FromCache || loaded.Fingerprint != built.Fingerprint {
		t.Errorf("expected cache hit for %s, got %+v", built.Fingerprint, loaded)
	}
	if second.docCalls != 0 {
		t.Errorf("cache hit should not embed documents, got %d calls", second.docCalls)
	}
	if loaded.Index.Len() != built.Index.Len() {
		t.Errorf("expected %d chunks, got %d", built.Index.Len(), loaded.Index.Len())
	}
}

func TestEndToEnd_QueryBeforeBuild(t *testing.T) {
	embedder := &wordEmbedder{}
	model := &recordingLLM{}

	app, err := New(context.Background(), testConfig(t), logr.Discard(), WithEmbedder(embedder), WithLLM(model))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ask, _ := app.NewAskUseCase()

	_, err = ask.Ask(context.Background(), usecases.NewSession(), "What is the capital of France?")
	if !errors.Is(err, entities.ErrEmptyKnowledgeBase) {
		t.Errorf("expected ErrEmptyKnowledgeBase, got %v", err)
	}
	if len(model.prompts) != 0 {
		t.Error("model should not be called")
	}
}

// Documents are concatenated without a separator, so text from the end of
// one file and the start of the next can share a chunk.
func TestEndToEnd_DocumentsConcatenatedWithoutSeparator(t *testing.T) {
	ctx := context.Background()

	app, err := New(ctx, testConfig(t), logr.Discard(), WithEmbedder(&wordEmbedder{}))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	res, err := app.Pipeline.BuildOrLoad(ctx, documents())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	hits, err := res.Index.Search(make([]float32, len(vocabulary)), res.Index.Len())
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	var joined bool
	for _, h := range hits {
		if strings.Contains(h.Chunk.Text, "rain."+romeSentence) {
			joined = true
		}
	}
	if !joined {
		t.Error("expected the last paragraph of paris.docx glued to rome.docx")
	}
}
