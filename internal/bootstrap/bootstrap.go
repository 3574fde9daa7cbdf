// Package bootstrap wires adapters into use cases from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
	redisv9 "github.com/redis/go-redis/v9"

	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/cachestore"
	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/chunker"
	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/embedding"
	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/extractor"
	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/filewatcher"
	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/llm"
	"github.com/mohdmuqsith/muq-bot-rag/internal/adapters/vectordb"
	"github.com/mohdmuqsith/muq-bot-rag/internal/config"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/usecases"
)

// App holds the wired use cases and the resources they own.
type App struct {
	Config    *config.Config
	Extractor *extractor.Registry
	Pipeline  *usecases.Pipeline
	StartedAt time.Time

	llm     ports.LLMService
	log     logr.Logger
	closers []io.Closer
}

// Option overrides a component New would otherwise build from config.
type Option func(*options)

type options struct {
	embedder ports.Embedder
	llm      ports.LLMService
	cache    ports.CacheStore
}

// WithEmbedder uses e instead of the configured embedder.
func WithEmbedder(e ports.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithLLM uses m instead of the configured language model.
func WithLLM(m ports.LLMService) Option {
	return func(o *options) { o.llm = m }
}

// WithCache uses c instead of the configured cache backend.
func WithCache(c ports.CacheStore) Option {
	return func(o *options) { o.cache = c }
}

// New builds the retrieval pipeline. The language model is created on first
// use by NewAskUseCase so commands that only build need no API key.
func New(ctx context.Context, cfg *config.Config, log logr.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config:    cfg,
		Extractor: extractor.NewRegistry(),
		StartedAt: time.Now(),
		llm:       o.llm,
		log:       log,
	}

	split, err := chunker.NewRecursive(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}

	metric, err := vectordb.ParseMetric(cfg.Index.Metric)
	if err != nil {
		return nil, err
	}
	builder := vectordb.Builder{Metric: metric}

	embedder := o.embedder
	if embedder == nil {
		if embedder, err = NewEmbedder(cfg, log); err != nil {
			return nil, err
		}
	}

	cache := o.cache
	if cache == nil {
		var closer io.Closer
		if cache, closer, err = NewCache(ctx, cfg, builder); err != nil {
			return nil, err
		}
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
	}

	app.Pipeline = usecases.NewPipeline(app.Extractor, split, embedder, builder, cache, log)
	return app, nil
}

// NewAskUseCase returns a question answering use case sharing the pipeline's
// embedder. It fails with config.ErrMissingAPIKey when the model needs a key.
func (a *App) NewAskUseCase() (*usecases.AskUseCase, error) {
	if a.llm == nil {
		m, err := NewLLM(a.Config)
		if err != nil {
			return nil, err
		}
		a.llm = m
	}
	return usecases.NewAskUseCase(a.Pipeline.Embedder(), a.llm, a.Config.Retrieval.TopK, a.log), nil
}

// NewWatchUseCase returns a use case rebuilding the knowledge base from a
// directory. The returned watcher must be stopped by the caller.
func (a *App) NewWatchUseCase() (*usecases.WatchUseCase, ports.FileWatcher, error) {
	w, err := filewatcher.NewFSNotifyWatcher(a.Extractor.Extensions(), a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating watcher: %w", err)
	}
	return usecases.NewWatchUseCase(w, a.Pipeline, a.Extractor.ReadDir, usecases.DefaultDebounce, a.log), w, nil
}

// Close releases cache connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewEmbedder builds the configured embedder.
func NewEmbedder(cfg *config.Config, log logr.Logger) (ports.Embedder, error) {
	switch cfg.Embedder.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedder.BaseURL, cfg.Embedder.Model, log)
	case "openai":
		key, err := cfg.EmbedderAPIKey()
		if err != nil {
			return nil, err
		}
		return embedding.NewOpenAIEmbedder(cfg.Embedder.BaseURL, cfg.Embedder.Model, key)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Embedder.Provider)
	}
}

// NewLLM builds the configured language model.
func NewLLM(cfg *config.Config) (ports.LLMService, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return llm.NewOllamaModel(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Temperature)
	case "openai":
		key, err := cfg.LLMAPIKey()
		if err != nil {
			return nil, err
		}
		return llm.NewOpenAIModel(cfg.LLM.BaseURL, cfg.LLM.Model, key, cfg.LLM.Temperature)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// NewCache builds the configured knowledge base store. The closer is nil
// for backends holding no connection. Backend "none" disables caching.
func NewCache(ctx context.Context, cfg *config.Config, decoder ports.IndexDecoder) (ports.CacheStore, io.Closer, error) {
	switch cfg.Cache.Backend {
	case "none":
		return nil, nil, nil
	case "file":
		return cachestore.NewFileStore(cfg.Cache.Dir, decoder), nil, nil
	case "sqlite":
		store, err := cachestore.NewSQLiteStore(cfg.Cache.SQLitePath, decoder)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "redis":
		client := redisv9.NewClient(&redisv9.Options{
			Addr:         cfg.Cache.RedisAddr,
			DB:           cfg.Cache.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis failed: %w", err)
		}
		return cachestore.NewRedisStore(client, cfg.Cache.RedisPrefix, decoder), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
