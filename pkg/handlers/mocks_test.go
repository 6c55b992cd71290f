package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/auth"
	"github.com/pulse-labs/pulse-assistant/pkg/models"
	"github.com/pulse-labs/pulse-assistant/pkg/services"
	"github.com/pulse-labs/pulse-assistant/pkg/testhelpers"
)

// mockAssistantService is a configurable AssistantService for handler tests.
type mockAssistantService struct {
	session    *services.AgentSession
	setupErr   error
	setupCalls []string

	sessionErr error

	askAnswer string
	askCalls  []string

	history []models.ChatMessage

	teardownErr error
	tornDown    []uuid.UUID
}

var _ services.AssistantService = (*mockAssistantService)(nil)

func (m *mockAssistantService) Setup(_ context.Context, apiKey string) (*services.AgentSession, error) {
	m.setupCalls = append(m.setupCalls, apiKey)
	if m.setupErr != nil {
		return nil, m.setupErr
	}
	return m.session, nil
}

func (m *mockAssistantService) Ask(_ context.Context, _ *services.AgentSession, question string) string {
	m.askCalls = append(m.askCalls, question)
	if m.askAnswer == "" {
		return "mock answer"
	}
	return m.askAnswer
}

func (m *mockAssistantService) Session(_ context.Context, id uuid.UUID) (*services.AgentSession, error) {
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	if m.session == nil || m.session.ID != id {
		return nil, apperrors.ErrSessionNotFound
	}
	return m.session, nil
}

func (m *mockAssistantService) History(_ *services.AgentSession) []models.ChatMessage {
	return m.history
}

func (m *mockAssistantService) Teardown(_ context.Context, id uuid.UUID) error {
	m.tornDown = append(m.tornDown, id)
	return m.teardownErr
}

// newTestAuth builds a real token issuer and middleware so handler
// tests exercise the same validation path as production.
func newTestAuth() (*auth.TokenIssuer, *auth.Middleware) {
	issuer := auth.NewTokenIssuer(testhelpers.TestSessionSecret, time.Hour)
	service := auth.NewAuthService(issuer, zap.NewNop())
	return issuer, auth.NewMiddleware(service, zap.NewNop())
}

func newTestSession() *services.AgentSession {
	return &services.AgentSession{
		ID:        uuid.New(),
		Model:     "gpt-4",
		CreatedAt: time.Now(),
	}
}
