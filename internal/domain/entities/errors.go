package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKnowledgeBase is returned when a query is issued before any knowledge base was built or loaded.
	ErrEmptyKnowledgeBase = errors.New("no knowledge base: build or load one first")

	// ErrUnsupportedFormat is returned for documents whose extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoExtractableText is returned when a document set produces no chunks.
	ErrNoExtractableText = errors.New("no extractable text in document set")

	// ErrCorruptIndex is returned when a serialized index cannot be decoded.
	ErrCorruptIndex = errors.New("corrupt index data")

	// ErrDimensionMismatch is returned when vectors of different lengths meet.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ExtractionError reports a document whose parser failed.
type ExtractionError struct {
	Document string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Document, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
