// Package usecases contains application business rules.
// Usecases orchestrate entities and depend only on port interfaces.
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

// Pipeline builds knowledge bases from document sets, or loads them from the cache.
type Pipeline struct {
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	builder   ports.IndexBuilder
	cache     ports.CacheStore
	log       logr.Logger
}

// NewPipeline creates a Pipeline with injected dependencies.
// A nil cache disables persistence.
func NewPipeline(
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	builder ports.IndexBuilder,
	cache ports.CacheStore,
	log logr.Logger,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		builder:   builder,
		cache:     cache,
		log:       log.WithName("pipeline"),
	}
}

// BuildResult describes the knowledge base returned by BuildOrLoad.
type BuildResult struct {
	Index       ports.Index
	Fingerprint string
	FromCache   bool
	Chunks      int
	Failures    []*entities.ExtractionError
}

// Embedder returns the embedder used for building, which queries must share.
func (p *Pipeline) Embedder() ports.Embedder {
	return p.embedder
}

// BuildOrLoad returns the knowledge base for docs, from the cache when an entry exists.
// Embedding and index errors are returned unchanged and nothing is persisted.
// A knowledge base missing any document because its extraction failed is returned but not cached.
func (p *Pipeline) BuildOrLoad(ctx context.Context, docs entities.DocumentSet) (*BuildResult, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: empty document set", entities.ErrNoExtractableText)
	}

	fp := Fingerprint(docs)
	if idx, ok := p.loadCached(ctx, fp); ok {
		p.log.Info("knowledge base loaded from cache", "fingerprint", fp, "chunks", idx.Len())
		return &BuildResult{Index: idx, Fingerprint: fp, FromCache: true, Chunks: idx.Len()}, nil
	}

	text, failures := p.ExtractAll(ctx, docs)
	chunks, err := p.chunker.Split(text)
	if err != nil {
		return nil, fmt.Errorf("chunking text: %w", err)
	}
	if len(chunks) == 0 {
		errs := []error{entities.ErrNoExtractableText}
		for _, f := range failures {
			errs = append(errs, f)
		}
		return nil, errors.Join(errs...)
	}

	p.log.V(1).Info("embedding chunks", "fingerprint", fp, "chunks", len(chunks), "embedder", p.embedder.Name())
	idx, err := p.builder.Build(ctx, chunks, p.embedder)
	if err != nil {
		return nil, err
	}

	switch {
	case p.cache == nil:
	case len(failures) > 0:
		p.log.Info("not caching knowledge base with failed documents", "fingerprint", fp, "failed", len(failures))
	default:
		if err := p.cache.Save(ctx, fp, idx); err != nil {
			p.log.Error(err, "saving knowledge base to cache", "fingerprint", fp)
		}
	}

	p.log.Info("knowledge base built", "fingerprint", fp, "chunks", idx.Len())
	return &BuildResult{
		Index:       idx,
		Fingerprint: fp,
		Chunks:      idx.Len(),
		Failures:    failures,
	}, nil
}

// ExtractAll concatenates the text of every supported document in upload order,
// with no separator between documents. Unsupported documents are skipped; failed
// ones are reported and the rest still contribute.
func (p *Pipeline) ExtractAll(ctx context.Context, docs entities.DocumentSet) (string, []*entities.ExtractionError) {
	var sb strings.Builder
	var failures []*entities.ExtractionError

	for _, doc := range docs {
		text, err := p.extractor.Extract(ctx, doc)
		if errors.Is(err, entities.ErrUnsupportedFormat) {
			p.log.V(1).Info("skipping unsupported document", "name", doc.Name)
			continue
		}
		if err != nil {
			var extractErr *entities.ExtractionError
			if !errors.As(err, &extractErr) {
				extractErr = &entities.ExtractionError{Document: doc.Name, Err: err}
			}
			p.log.Error(extractErr.Err, "extraction failed", "name", doc.Name)
			failures = append(failures, extractErr)
			continue
		}
		sb.WriteString(text)
	}

	return sb.String(), failures
}

func (p *Pipeline) loadCached(ctx context.Context, fp string) (ports.Index, bool) {
	if p.cache == nil {
		return nil, false
	}

	idx, ok, err := p.cache.Load(ctx, fp)
	if err != nil {
		p.log.Error(err, "cache entry unreadable, rebuilding", "fingerprint", fp)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if idx.Embedder() != p.embedder.Name() {
		p.log.Info("cached knowledge base uses another embedder, rebuilding",
			"fingerprint", fp, "cached", idx.Embedder(), "current", p.embedder.Name())
		return nil, false
	}
	if !p.builder.Compatible(idx) {
		p.log.Info("cached knowledge base uses another index layout, rebuilding", "fingerprint", fp)
		return nil, false
	}
	return idx, true
}
