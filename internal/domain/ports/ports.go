// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, adapters implement them.
package ports

import (
	"context"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
)

// Embedder maps text to vectors. Documents and queries must go through the
// same model so that distances between them are meaningful.
type Embedder interface {
	// Name identifies the model, e.g. "ollama:all-minilm".
	Name() string

	// EmbedDocuments embeds a batch of chunk texts, one vector per text.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is a built vector index over chunk texts.
type Index interface {
	// Search returns the k nearest chunks, nearest first.
	// Ties keep insertion order; k above Len returns every chunk.
	Search(query []float32, k int) ([]entities.SearchHit, error)

	// Len is the number of stored chunks.
	Len() int

	// Dimension is the vector length, 0 for an empty index.
	Dimension() int

	// Embedder is the Name of the embedder the index was built with.
	Embedder() string

	// MarshalBinary serializes the index for the cache store.
	MarshalBinary() ([]byte, error)
}

// IndexBuilder embeds chunks and builds an Index from them.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []entities.Chunk, embedder Embedder) (Index, error)

	// Compatible reports whether idx could have come from this builder,
	// e.g. it uses the same distance metric.
	Compatible(idx Index) bool
}

// IndexDecoder restores an Index written by Index.MarshalBinary.
type IndexDecoder interface {
	Decode(data []byte) (Index, error)
}

// CacheStore persists knowledge bases keyed by document set fingerprint.
type CacheStore interface {
	// Load returns the stored index, or ok=false when there is no entry.
	Load(ctx context.Context, fingerprint string) (idx Index, ok bool, err error)

	// Save upserts the entry for fingerprint.
	Save(ctx context.Context, fingerprint string, idx Index) error
}

// TextExtractor turns a document into plain text.
type TextExtractor interface {
	// Extract returns the document text, entities.ErrUnsupportedFormat for
	// unknown types, or an *entities.ExtractionError when parsing fails.
	Extract(ctx context.Context, doc entities.Document) (string, error)

	// Supports reports whether a file name has a known extension.
	Supports(name string) bool
}

// Chunker splits text into overlapping chunks.
type Chunker interface {
	Split(text string) ([]entities.Chunk, error)
}

// LLMService generates text responses from a language model.
type LLMService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
