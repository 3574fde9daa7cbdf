// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import "time"

// Document is one uploaded file: name, byte size and raw content.
type Document struct {
	Name    string
	Size    int64
	Content []byte
}

// NewDocument creates a Document whose size is the content length.
func NewDocument(name string, content []byte) Document {
	return Document{Name: name, Size: int64(len(content)), Content: content}
}

// DocumentSet is the ordered collection of files uploaded for one session.
// Order is significant: it drives both concatenation and the fingerprint.
type DocumentSet []Document

// Names returns the document names in upload order.
func (s DocumentSet) Names() []string {
	names := make([]string, len(s))
	for i, d := range s {
		names[i] = d.Name
	}
	return names
}

// Chunk is a contiguous span of extracted text.
type Chunk struct {
	Index int // Position in the chunk sequence
	Text  string
}

// SearchHit is a chunk returned by an index search with its distance to the query.
// Lower distance means nearer.
type SearchHit struct {
	Chunk    Chunk
	Distance float32
}

// ScoredChunk is a retrieved chunk with its display score.
// Score is informational only; ranking is the index's job.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float32
	Score    float64
}

// ChatMessage represents a conversation turn.
type ChatMessage struct {
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Answer is the outcome of one question against a knowledge base.
type Answer struct {
	Query   string
	Text    string
	Prompt  string
	Results []ScoredChunk
}
