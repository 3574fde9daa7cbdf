package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"

	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/cachestore"
	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/vectordb"
	"github.com/mohdmuqsith/muq-bot-rag/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Chunker:   config.ChunkerConfig{Size: 500, Overlap: 70},
		Retrieval: config.RetrievalConfig{TopK: 4},
		Index:     config.IndexConfig{Metric: "l2"},
		Embedder:  config.ModelConfig{Provider: "ollama", Model: "all-minilm", BaseURL: "http://localhost:11434"},
		LLM:       config.ModelConfig{Provider: "openai", APIKeyEnv: "MUQBOT_TEST_LLM_KEY"},
		Cache:     config.CacheConfig{Backend: "file", Dir: t.TempDir()},
	}
}

func TestNewCache_Backends(t *testing.T) {
	ctx := context.Background()
	decoder := vectordb.Builder{}

	cfg := testConfig(t)
	store, closer, err := NewCache(ctx, cfg, decoder)
	if err != nil {
		t.Fatalf("file cache: %v", err)
	}
	if _, ok := store.(*cachestore.FileStore); !ok || closer != nil {
		t.Errorf("expected file store without closer, got %T", store)
	}

	cfg.Cache.Backend = "sqlite"
	cfg.Cache.SQLitePath = filepath.Join(t.TempDir(), "kb.db")
	store, closer, err = NewCache(ctx, cfg, decoder)
	if err != nil {
		t.Fatalf("sqlite cache: %v", err)
	}
	if _, ok := store.(*cachestore.SQLiteStore); !ok || closer == nil {
		t.Errorf("expected sqlite store with closer, got %T", store)
	}
	closer.Close()

	cfg.Cache.Backend = "none"
	store, _, err = NewCache(ctx, cfg, decoder)
	if err != nil || store != nil {
		t.Errorf("expected no cache, got %v, %v", store, err)
	}
}

func TestNewCache_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	if _, _, err := NewCache(context.Background(), cfg, vectordb.Builder{}); err == nil {
		t.Error("expected ping error")
	}
}

func TestNewEmbedder(t *testing.T) {
	cfg := testConfig(t)

	e, err := NewEmbedder(cfg, logr.Discard())
	if err != nil {
		t.Fatalf("ollama embedder: %v", err)
	}
	if e.Name() != "ollama:all-minilm" {
		t.Errorf("unexpected name %s", e.Name())
	}

	cfg.Embedder.Provider = "openai"
	cfg.Embedder.APIKeyEnv = "MUQBOT_TEST_EMBED_KEY"
	t.Setenv("MUQBOT_TEST_EMBED_KEY", "")
	if _, err := NewEmbedder(cfg, logr.Discard()); !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewLLM_MissingKey(t *testing.T) {
	cfg := testConfig(t)
	t.Setenv("MUQBOT_TEST_LLM_KEY", "")

	if _, err := NewLLM(cfg); !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}

	t.Setenv("MUQBOT_TEST_LLM_KEY", "secret")
	if _, err := NewLLM(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApp_AskNeedsKeyOnlyWhenAsking(t *testing.T) {
	cfg := testConfig(t)
	t.Setenv("MUQBOT_TEST_LLM_KEY", "")

	app, err := New(context.Background(), cfg, logr.Discard())
	if err != nil {
		t.Fatalf("building without a key should work: %v", err)
	}
	defer app.Close()

	if _, err := app.NewAskUseCase(); !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestApp_InvalidChunker(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chunker.Overlap = cfg.Chunker.Size

	if _, err := New(context.Background(), cfg, logr.Discard()); err == nil {
		t.Error("expected chunker error")
	}
}

func TestApp_NewWatchUseCase(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), logr.Discard())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	uc, w, err := app.NewWatchUseCase()
	if err != nil {
		t.Fatalf("watch use case: %v", err)
	}
	defer w.Stop()
	if uc == nil {
		t.Error("expected a use case")
	}
}
