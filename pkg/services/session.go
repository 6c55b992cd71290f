package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulse-labs/pulse-assistant/pkg/llm"
	"github.com/pulse-labs/pulse-assistant/pkg/models"
)

// AgentSession is one logged-in assistant session: a reasoning runner
// bound to the credential supplied at login, the fixed tool roster, and
// the in-memory transcript. A session has two states only - it does not
// exist, or it is ready. There is no way back to unready short of
// deleting the session.
//
// The mutex serializes questions: one Ask runs to completion, tool calls
// included, before the next is admitted onto the same transcript.
type AgentSession struct {
	ID        uuid.UUID
	Model     string
	CreatedAt time.Time

	runner  llm.Runner
	toolset *Toolset

	mu         sync.Mutex
	transcript []models.ChatMessage
}

// Transcript returns a copy of the session's conversation so far, in
// insertion order.
func (s *AgentSession) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// append adds one turn to the transcript. Callers must hold s.mu.
func (s *AgentSession) append(role models.ChatRole, content string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        uuid.New(),
		SessionID: s.ID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.transcript = append(s.transcript, msg)
	return msg
}
