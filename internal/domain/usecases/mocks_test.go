package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
)

// mockEmbedder implements ports.Embedder for testing
type mockEmbedder struct {
	name        string
	embedFn     func(text string) ([]float32, error)
	docCalls    int
	queryCalls  int
	queryInputs []string
}

func (m *mockEmbedder) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock"
}

func (m *mockEmbedder) embed(text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{float32(len(text)), 1}, nil
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.docCalls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.embed(text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.queryCalls++
	m.queryInputs = append(m.queryInputs, text)
	return m.embed(text)
}

// mockIndex implements ports.Index with a fixed search result
type mockIndex struct {
	embedder string
	metric   string
	hits     []entities.SearchHit
	searchFn func(q []float32, k int) ([]entities.SearchHit, error)
}

func (m *mockIndex) Search(q []float32, k int) ([]entities.SearchHit, error) {
	if m.searchFn != nil {
		return m.searchFn(q, k)
	}
	if k > len(m.hits) {
		k = len(m.hits)
	}
	return m.hits[:k], nil
}

func (m *mockIndex) Len() int                       { return len(m.hits) }
func (m *mockIndex) Dimension() int                 { return 2 }
func (m *mockIndex) Embedder() string               { return m.embedder }
func (m *mockIndex) MarshalBinary() ([]byte, error) { return []byte("idx"), nil }

// mockBuilder builds a mockIndex after calling EmbedDocuments
type mockBuilder struct {
	metric   string
	buildErr error
	built    [][]entities.Chunk
}

func (m *mockBuilder) Compatible(idx ports.Index) bool {
	mi, ok := idx.(*mockIndex)
	return ok && mi.metric == m.metric
}

func (m *mockBuilder) Build(ctx context.Context, chunks []entities.Chunk, embedder ports.Embedder) (ports.Index, error) {
	m.built = append(m.built, chunks)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if _, err := embedder.EmbedDocuments(ctx, texts); err != nil {
		return nil, err
	}
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	hits := make([]entities.SearchHit, len(chunks))
	for i, c := range chunks {
		hits[i] = entities.SearchHit{Chunk: c}
	}
	return &mockIndex{embedder: embedder.Name(), metric: m.metric, hits: hits}, nil
}

// mockCache implements ports.CacheStore in memory
type mockCache struct {
	entries map[string]ports.Index
	loadErr error
	saveErr error
	saves   int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]ports.Index)}
}

func (m *mockCache) Load(ctx context.Context, fp string) (ports.Index, bool, error) {
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	idx, ok := m.entries[fp]
	return idx, ok, nil
}

func (m *mockCache) Save(ctx context.Context, fp string, idx ports.Index) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[fp] = idx
	return nil
}

// mockExtractor returns the raw content of office-type documents and fails for
// names containing "broken"
type mockExtractor struct{}

func (mockExtractor) Supports(name string) bool {
	switch filepath.Ext(name) {
	case ".docx", ".pdf", ".pptx":
		return true
	}
	return false
}

func (e mockExtractor) Extract(ctx context.Context, doc entities.Document) (string, error) {
	if !e.Supports(doc.Name) {
		return "", entities.ErrUnsupportedFormat
	}
	if strings.Contains(doc.Name, "broken") {
		return "", &entities.ExtractionError{Document: doc.Name, Err: errors.New("bad xref table")}
	}
	return string(doc.Content), nil
}

// mockChunker splits on blank lines
type mockChunker struct{}

func (mockChunker) Split(text string) ([]entities.Chunk, error) {
	var chunks []entities.Chunk
	for _, part := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, entities.Chunk{Index: len(chunks), Text: strings.TrimSpace(part)})
	}
	return chunks, nil
}

// mockLLM implements ports.LLMService for testing
type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "mocked answer", nil
}
