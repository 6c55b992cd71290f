package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/audit"
	"github.com/pulse-labs/pulse-assistant/pkg/catalog"
	"github.com/pulse-labs/pulse-assistant/pkg/crypto"
	"github.com/pulse-labs/pulse-assistant/pkg/llm"
	"github.com/pulse-labs/pulse-assistant/pkg/models"
	"github.com/pulse-labs/pulse-assistant/pkg/repositories"
	sqlutil "github.com/pulse-labs/pulse-assistant/pkg/sql"
)

// iterationLimitMessage is the terminal answer when a run exhausts its
// tool iteration budget. The question fails; the session does not.
const iterationLimitMessage = "Agent stopped due to iteration limit or time limit."

// AssistantService is the entry point the presentation shell talks to:
// open a session with a credential, then ask questions against it.
type AssistantService interface {
	// Setup binds a reasoning runner to the supplied API key and returns
	// a ready session. An unusable credential leaves no session behind.
	Setup(ctx context.Context, apiKey string) (*AgentSession, error)

	// Ask answers one question on a session. It never fails: every
	// fault becomes a user-visible string and the session stays usable
	// for the next question.
	Ask(ctx context.Context, session *AgentSession, question string) string

	// Session resolves a live session by ID.
	Session(ctx context.Context, id uuid.UUID) (*AgentSession, error)

	// History returns a session's transcript in insertion order.
	History(session *AgentSession) []models.ChatMessage

	// Teardown closes a session. Its token stops resolving immediately.
	Teardown(ctx context.Context, id uuid.UUID) error
}

// AssistantDeps carries the collaborators an assistant service needs.
// ChatRepo may be nil; history then lives in memory only.
type AssistantDeps struct {
	RunnerFactory llm.RunnerFactory
	Catalog       *catalog.Catalog
	Executor      QueryRunner
	Auditor       *audit.SecurityAuditor
	ChatRepo      repositories.ChatRepository
	Registry      SessionRegistry

	Model   string // model sessions are opened with, for the audit trail
	Dialect string // SQL dialect named in the instructions, e.g. "BigQuery"
	Toolset ToolsetConfig
	Logger  *zap.Logger
}

type assistantService struct {
	deps AssistantDeps

	dataset string
	project string
	logger  *zap.Logger
}

// NewAssistantService wires the assistant's Setup/Ask entry points.
// The registry defaults to in-memory when not provided.
func NewAssistantService(deps AssistantDeps, project string) AssistantService {
	return newAssistantService(deps, project)
}

// NewRedisBackedAssistantService wires the assistant with its session
// registry mirrored to Redis. Construction is two-phase because the
// registry rebuilds sessions through the service itself.
func NewRedisBackedAssistantService(
	deps AssistantDeps,
	project string,
	client *redis.Client,
	encryptor *crypto.CredentialEncryptor,
	ttl time.Duration,
) AssistantService {
	svc := newAssistantService(deps, project)
	svc.deps.Registry = NewRedisRegistry(client, encryptor, svc.Rebuilder(), ttl, deps.Logger)
	return svc
}

func newAssistantService(deps AssistantDeps, project string) *assistantService {
	if deps.Registry == nil {
		deps.Registry = NewMemoryRegistry()
	}

	return &assistantService{
		deps:    deps,
		dataset: deps.Catalog.Dataset(),
		project: project,
		logger:  deps.Logger.Named("assistant"),
	}
}

var _ AssistantService = (*assistantService)(nil)

// Setup opens a session for the given API key. The key is validated for
// presence only; a bad key surfaces on the first question as a provider
// auth error the same way the dashboard's original login behaved.
func (s *assistantService) Setup(ctx context.Context, apiKey string) (*AgentSession, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}

	session, err := s.buildSession(uuid.New(), s.deps.Model, apiKey)
	if err != nil {
		return nil, fmt.Errorf("setup session: %w", err)
	}

	if err := s.deps.Registry.Put(ctx, session, apiKey); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	s.deps.Auditor.LogSessionSetup(ctx, session.ID, session.Model)
	s.persistSession(ctx, session)

	s.logger.Info("Session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("model", session.Model))

	return session, nil
}

// buildSession constructs a ready session: runner bound to the
// credential, toolset bound to the session. Also used to rebuild
// sessions from the Redis mirror.
func (s *assistantService) buildSession(id uuid.UUID, model, apiKey string) (*AgentSession, error) {
	runner, err := s.deps.RunnerFactory.CreateRunner(apiKey)
	if err != nil {
		return nil, err
	}

	return &AgentSession{
		ID:        id,
		Model:     model,
		CreatedAt: time.Now(),
		runner:    runner,
		toolset: NewToolset(id, s.deps.Catalog, s.deps.Executor, s.deps.Auditor,
			s.deps.Toolset, s.deps.Logger),
	}, nil
}

// Rebuilder exposes session reconstruction for the Redis-backed registry.
func (s *assistantService) Rebuilder() SessionRebuilder {
	return func(id uuid.UUID, model, credential string) (*AgentSession, error) {
		return s.buildSession(id, model, credential)
	}
}

// Ask runs one question through the reasoning engine. Faults never
// escape: iteration exhaustion and engine errors both come back as the
// answer string, scoped to this question only.
func (s *assistantService) Ask(ctx context.Context, session *AgentSession, question string) string {
	session.mu.Lock()
	defer session.mu.Unlock()

	s.screenQuestion(ctx, session.ID, question)

	instructions := BuildInstructions(s.dataset, s.project, s.deps.Dialect, question)

	answer, err := session.runner.Run(ctx, instructions, session.toolset.Definitions(), session.toolset)
	if err != nil {
		if errors.Is(err, llm.ErrToolIterationsExceeded) {
			answer = iterationLimitMessage
		} else {
			answer = execErrorPrefix + err.Error()
		}
		s.logger.Warn("Question failed",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}

	userMsg := session.append(models.ChatRoleUser, question)
	assistantMsg := session.append(models.ChatRoleAssistant, answer)
	s.persistMessages(ctx, session, userMsg, assistantMsg)

	return answer
}

func (s *assistantService) Session(ctx context.Context, id uuid.UUID) (*AgentSession, error) {
	return s.deps.Registry.Get(ctx, id)
}

func (s *assistantService) History(session *AgentSession) []models.ChatMessage {
	return session.Transcript()
}

func (s *assistantService) Teardown(ctx context.Context, id uuid.UUID) error {
	return s.deps.Registry.Delete(ctx, id)
}

// screenQuestion runs libinjection over the inbound question. Questions
// are prose handed to the model, not SQL, so a hit is recorded for the
// audit trail and the question still runs.
func (s *assistantService) screenQuestion(ctx context.Context, sessionID uuid.UUID, question string) {
	if result := sqlutil.CheckInputForInjection("question", question); result != nil {
		s.deps.Auditor.LogInjectionAttempt(ctx, sessionID, audit.InjectionDetails{
			Input:       "question",
			Value:       question,
			Fingerprint: result.Fingerprint,
			Tool:        "chat",
		})
	}
}

// persistSession writes the session's identity to the history database.
// Best-effort: a database fault is logged and the session proceeds in
// memory.
func (s *assistantService) persistSession(ctx context.Context, session *AgentSession) {
	if s.deps.ChatRepo == nil {
		return
	}

	record := &models.SessionRecord{
		ID:        session.ID,
		Model:     session.Model,
		CreatedAt: session.CreatedAt,
	}
	if err := s.deps.ChatRepo.CreateSession(ctx, record); err != nil {
		s.logger.Warn("Failed to persist session record",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}
}

// persistMessages appends both turns of an exchange to the history
// database. Best-effort for the same reason as persistSession.
func (s *assistantService) persistMessages(ctx context.Context, session *AgentSession, messages ...models.ChatMessage) {
	if s.deps.ChatRepo == nil {
		return
	}

	// The session row may be missing when the database came up after
	// login; CreateSession is an upsert no-op when it already exists.
	s.persistSession(ctx, session)

	for i := range messages {
		if err := s.deps.ChatRepo.AddMessage(ctx, &messages[i]); err != nil {
			s.logger.Warn("Failed to persist chat message",
				zap.String("session_id", session.ID.String()),
				zap.String("role", string(messages[i].Role)),
				zap.Error(err))
		}
	}

	if err := s.deps.ChatRepo.TouchSession(ctx, session.ID); err != nil {
		s.logger.Warn("Failed to touch session record",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}
}
