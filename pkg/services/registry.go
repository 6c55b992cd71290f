package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/crypto"
)

// SessionRegistry tracks live assistant sessions by ID. The in-memory
// map is authoritative; the Redis-backed variant additionally mirrors
// enough state to rebuild a session after a restart, so valid tokens
// keep working across deploys.
type SessionRegistry interface {
	// Put stores a ready session. The credential is the API key the
	// session's runner was built with; in-memory registries discard it.
	Put(ctx context.Context, session *AgentSession, credential string) error

	// Get returns the session, or apperrors.ErrSessionNotFound.
	Get(ctx context.Context, id uuid.UUID) (*AgentSession, error)

	// Delete removes the session. Deleting an absent session is a no-op.
	Delete(ctx context.Context, id uuid.UUID) error
}

// memoryRegistry keeps sessions in a process-local map. Sessions die
// with the process, matching the dashboard's original lifecycle.
type memoryRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*AgentSession
}

// NewMemoryRegistry creates an in-process session registry.
func NewMemoryRegistry() SessionRegistry {
	return &memoryRegistry{sessions: make(map[uuid.UUID]*AgentSession)}
}

var _ SessionRegistry = (*memoryRegistry)(nil)

func (r *memoryRegistry) Put(_ context.Context, session *AgentSession, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *memoryRegistry) Get(_ context.Context, id uuid.UUID) (*AgentSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

func (r *memoryRegistry) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// SessionRebuilder reconstructs a live session from its persisted
// identity and decrypted credential. The assistant service provides it;
// the registry stays ignorant of runners and toolsets.
type SessionRebuilder func(id uuid.UUID, model, credential string) (*AgentSession, error)

// sessionMirror is the JSON document mirrored to Redis per session.
// The credential is AES-GCM encrypted before it leaves the process.
type sessionMirror struct {
	Model      string    `json:"model"`
	Credential string    `json:"credential"` // encrypted
	CreatedAt  time.Time `json:"created_at"`
}

// redisRegistry layers a Redis mirror under an in-memory registry. Reads
// hit memory first; a miss falls back to Redis and rebuilds the session,
// which is how sessions survive a process restart.
type redisRegistry struct {
	memory    SessionRegistry
	client    *redis.Client
	encryptor *crypto.CredentialEncryptor
	rebuild   SessionRebuilder
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisRegistry creates a session registry mirrored to Redis with the
// given TTL, matching the session token lifetime.
func NewRedisRegistry(
	client *redis.Client,
	encryptor *crypto.CredentialEncryptor,
	rebuild SessionRebuilder,
	ttl time.Duration,
	logger *zap.Logger,
) SessionRegistry {
	return &redisRegistry{
		memory:    NewMemoryRegistry(),
		client:    client,
		encryptor: encryptor,
		rebuild:   rebuild,
		ttl:       ttl,
		logger:    logger.Named("session-registry"),
	}
}

var _ SessionRegistry = (*redisRegistry)(nil)

func sessionKey(id uuid.UUID) string {
	return "pulse:session:" + id.String()
}

func (r *redisRegistry) Put(ctx context.Context, session *AgentSession, credential string) error {
	if err := r.memory.Put(ctx, session, credential); err != nil {
		return err
	}

	encrypted, err := r.encryptor.Encrypt(credential)
	if err != nil {
		return fmt.Errorf("encrypt session credential: %w", err)
	}

	doc, err := json.Marshal(sessionMirror{
		Model:      session.Model,
		Credential: encrypted,
		CreatedAt:  session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session mirror: %w", err)
	}

	// Mirror failures degrade to in-memory behavior rather than failing
	// the login.
	if err := r.client.Set(ctx, sessionKey(session.ID), doc, r.ttl).Err(); err != nil {
		r.logger.Warn("Failed to mirror session to Redis",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}

	return nil
}

func (r *redisRegistry) Get(ctx context.Context, id uuid.UUID) (*AgentSession, error) {
	session, err := r.memory.Get(ctx, id)
	if err == nil {
		return session, nil
	}

	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		r.logger.Warn("Redis session lookup failed",
			zap.String("session_id", id.String()),
			zap.Error(err))
		return nil, apperrors.ErrSessionNotFound
	}

	var mirror sessionMirror
	if err := json.Unmarshal(raw, &mirror); err != nil {
		return nil, fmt.Errorf("unmarshal session mirror: %w", err)
	}

	credential, err := r.encryptor.Decrypt(mirror.Credential)
	if err != nil {
		// Wrong SESSION_SECRET or corrupted mirror; treat as gone.
		r.logger.Warn("Failed to decrypt mirrored session credential",
			zap.String("session_id", id.String()),
			zap.Error(err))
		return nil, apperrors.ErrSessionNotFound
	}

	rebuilt, err := r.rebuild(id, mirror.Model, credential)
	if err != nil {
		return nil, fmt.Errorf("rebuild session: %w", err)
	}
	rebuilt.CreatedAt = mirror.CreatedAt

	if err := r.memory.Put(ctx, rebuilt, credential); err != nil {
		return nil, err
	}

	r.logger.Info("Rebuilt session from Redis mirror",
		zap.String("session_id", id.String()),
		zap.String("model", mirror.Model))

	return rebuilt, nil
}

func (r *redisRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.memory.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		r.logger.Warn("Failed to delete session mirror",
			zap.String("session_id", id.String()),
			zap.Error(err))
	}
	return nil
}
