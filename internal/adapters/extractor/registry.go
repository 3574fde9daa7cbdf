// Package extractor turns uploaded office documents into plain text.
package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
)

// FormatExtractor extracts text from the raw bytes of one document format.
type FormatExtractor interface {
	Extract(data []byte) (string, error)
}

// Registry implements ports.TextExtractor by dispatching on file extension.
type Registry struct {
	formats map[string]FormatExtractor
}

// NewRegistry creates a registry for .pptx, .pdf and .docx documents.
func NewRegistry() *Registry {
	return &Registry{
		formats: map[string]FormatExtractor{
			".pptx": PPTX{},
			".pdf":  PDF{},
			".docx": DOCX{},
		},
	}
}

// Register adds or replaces the extractor for an extension such as ".odt".
func (r *Registry) Register(ext string, f FormatExtractor) {
	r.formats[strings.ToLower(ext)] = f
}

// Supports reports whether name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, ok := r.formats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.formats))
	for ext := range r.formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract returns the text of doc. Parser failures come back as *entities.ExtractionError.
func (r *Registry) Extract(ctx context.Context, doc entities.Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.Name))
	f, ok := r.formats[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", entities.ErrUnsupportedFormat, ext)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := f.Extract(doc.Content)
	if err != nil {
		return "", &entities.ExtractionError{Document: doc.Name, Err: err}
	}
	return text, nil
}

// ReadFiles loads files from disk into a document set, keeping argument order.
func ReadFiles(paths []string) (entities.DocumentSet, error) {
	docs := make(entities.DocumentSet, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, entities.NewDocument(filepath.Base(path), content))
	}
	return docs, nil
}

// ReadDir loads every supported file directly under dir, sorted by name.
func (r *Registry) ReadDir(dir string) (entities.DocumentSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !r.Supports(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return ReadFiles(paths)
}
