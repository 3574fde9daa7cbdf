// Package chunker splits extracted text into overlapping chunks.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 70
)

// DefaultSeparators are tried in order: paragraph, line, word, character.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ErrInvalidOverlap is returned when the overlap does not fit inside a chunk.
var ErrInvalidOverlap = errors.New("chunk overlap must be smaller than chunk size")

// Recursive implements ports.Chunker by splitting on the largest separator
// that yields pieces under the chunk size, then merging pieces back up to
// the size with the configured overlap. Lengths are counted in runes.
type Recursive struct {
	splitter textsplitter.RecursiveCharacter
	size     int
	overlap  int
}

// NewRecursive creates a chunker. Zero values select the defaults.
func NewRecursive(size, overlap int) (*Recursive, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d, size %d", ErrInvalidOverlap, overlap, size)
	}

	return &Recursive{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(DefaultSeparators),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
		size:    size,
		overlap: overlap,
	}, nil
}

// Size returns the maximum chunk length in runes.
func (r *Recursive) Size() int { return r.size }

// Overlap returns the target overlap between neighbouring chunks in runes.
func (r *Recursive) Overlap() int { return r.overlap }

// Split returns the ordered non-blank chunks of text.
func (r *Recursive) Split(text string) ([]entities.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts, err := r.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}

	chunks := make([]entities.Chunk, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, entities.Chunk{Index: len(chunks), Text: part})
	}
	return chunks, nil
}
