// Package vectordb provides the in-memory vector index.
package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
)

// Metric is the distance used to rank chunks. Lower is nearer.
type Metric string

const (
	// MetricL2 is squared Euclidean distance.
	MetricL2 Metric = "l2"
	// MetricCosine is one minus cosine similarity.
	MetricCosine Metric = "cosine"
)

// ParseMetric validates a metric name; empty selects MetricL2.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricL2:
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

// FlatIndex implements ports.Index with exact brute-force search.
type FlatIndex struct {
	metric   Metric
	embedder string
	dim      int
	chunks   []entities.Chunk
	vectors  [][]float32
}

// NewFlatIndex creates an index over chunks and their vectors.
func NewFlatIndex(metric Metric, embedder string, chunks []entities.Chunk, vectors [][]float32) (*FlatIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	dim := 0
	for i, v := range vectors {
		if i == 0 {
			dim = len(v)
		}
		if len(v) != dim || dim == 0 {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", entities.ErrDimensionMismatch, i, len(v), dim)
		}
	}

	return &FlatIndex{
		metric:   metric,
		embedder: embedder,
		dim:      dim,
		chunks:   chunks,
		vectors:  vectors,
	}, nil
}

// Search returns the k nearest chunks. Equal distances keep insertion order.
func (f *FlatIndex) Search(query []float32, k int) ([]entities.SearchHit, error) {
	if k <= 0 || len(f.chunks) == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", entities.ErrDimensionMismatch, len(query), f.dim)
	}

	hits := make([]entities.SearchHit, len(f.chunks))
	for i, v := range f.vectors {
		hits[i] = entities.SearchHit{Chunk: f.chunks[i], Distance: f.distance(query, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *FlatIndex) distance(a, b []float32) float32 {
	if f.metric == MetricCosine {
		return float32(1 - cosineSimilarity(a, b))
	}
	return squaredL2(a, b)
}

func (f *FlatIndex) Len() int         { return len(f.chunks) }
func (f *FlatIndex) Dimension() int   { return f.dim }
func (f *FlatIndex) Embedder() string { return f.embedder }
func (f *FlatIndex) Metric() Metric   { return f.metric }

// Chunks returns the stored chunks in insertion order.
func (f *FlatIndex) Chunks() []entities.Chunk {
	out := make([]entities.Chunk, len(f.chunks))
	copy(out, f.chunks)
	return out
}

// Builder implements ports.IndexBuilder and ports.IndexDecoder for FlatIndex.
type Builder struct {
	Metric Metric
}

// Build embeds every chunk with embedder and indexes the result.
// Embedding errors are returned unchanged.
func (b Builder) Build(ctx context.Context, chunks []entities.Chunk, embedder ports.Embedder) (ports.Index, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	idx, err := NewFlatIndex(b.metric(), embedder.Name(), chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	return idx, nil
}

// Compatible reports whether idx is a FlatIndex ranked with the builder's metric.
func (b Builder) Compatible(idx ports.Index) bool {
	flat, ok := idx.(*FlatIndex)
	return ok && flat.Metric() == b.metric()
}

func (b Builder) metric() Metric {
	if b.Metric == "" {
		return MetricL2
	}
	return b.Metric
}

// Decode restores an index written by FlatIndex.MarshalBinary.
func (Builder) Decode(data []byte) (ports.Index, error) {
	return Unmarshal(data)
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
