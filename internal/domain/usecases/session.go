package usecases

import (
	"time"

	"github.com/google/uuid"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
)

// Session is the state of one user session: at most one knowledge base with
// its fingerprint, and the chat history. It is not safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	fingerprint string
	kb          ports.Index
	history     []entities.ChatMessage
}

// NewSession starts an empty session.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// Load replaces the session's knowledge base with a build result.
func (s *Session) Load(res *BuildResult) {
	s.kb = res.Index
	s.fingerprint = res.Fingerprint
}

// KnowledgeBase returns the held index or entities.ErrEmptyKnowledgeBase.
func (s *Session) KnowledgeBase() (ports.Index, error) {
	if s.kb == nil {
		return nil, entities.ErrEmptyKnowledgeBase
	}
	return s.kb, nil
}

// Fingerprint of the loaded document set, empty when none is loaded.
func (s *Session) Fingerprint() string {
	return s.fingerprint
}

// Record appends a turn to the chat history.
func (s *Session) Record(role, content string) {
	s.history = append(s.history, entities.ChatMessage{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// History returns a copy of the chat history, oldest first.
func (s *Session) History() []entities.ChatMessage {
	out := make([]entities.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}
