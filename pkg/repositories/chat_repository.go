// Package repositories contains data access for the chat history database.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/database"
	"github.com/pulse-labs/pulse-assistant/pkg/models"
)

// ChatRepository provides data access for assistant sessions and their
// message transcripts.
type ChatRepository interface {
	CreateSession(ctx context.Context, record *models.SessionRecord) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.SessionRecord, error)
	TouchSession(ctx context.Context, sessionID uuid.UUID) error
	AddMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessages(ctx context.Context, sessionID uuid.UUID) ([]*models.ChatMessage, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// chatRepository implements ChatRepository using PostgreSQL.
type chatRepository struct {
	db *database.DB
}

// NewChatRepository creates a new chat repository on the history database.
func NewChatRepository(db *database.DB) ChatRepository {
	return &chatRepository{db: db}
}

var _ ChatRepository = (*chatRepository)(nil)

// CreateSession inserts a session record. Inserting an existing ID is a
// no-op so Ask can lazily ensure the row exists before writing messages.
func (r *chatRepository) CreateSession(ctx context.Context, record *models.SessionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.LastActiveAt.IsZero() {
		record.LastActiveAt = record.CreatedAt
	}

	query := `
		INSERT INTO assistant_sessions (id, model, created_at, last_active_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, record.ID, record.Model, record.CreatedAt, record.LastActiveAt)
	if err != nil {
		return fmt.Errorf("failed to create session record: %w", err)
	}

	return nil
}

// GetSession fetches a session record by ID.
func (r *chatRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.SessionRecord, error) {
	query := `
		SELECT id, model, created_at, last_active_at
		FROM assistant_sessions
		WHERE id = $1`

	var record models.SessionRecord
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&record.ID,
		&record.Model,
		&record.CreatedAt,
		&record.LastActiveAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session record: %w", err)
	}

	return &record, nil
}

// TouchSession bumps the session's last_active_at to now.
func (r *chatRepository) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	query := `UPDATE assistant_sessions SET last_active_at = now() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// AddMessage appends one transcript row for a session.
func (r *chatRepository) AddMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if !models.IsValidChatRole(msg.Role) {
		return fmt.Errorf("%w: invalid chat role %q", apperrors.ErrInvalidInput, msg.Role)
	}

	query := `
		INSERT INTO assistant_messages (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, msg.ID, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	return nil
}

// GetMessages returns a session's transcript in chronological order.
func (r *chatRepository) GetMessages(ctx context.Context, sessionID uuid.UUID) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM assistant_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return messages, nil
}

// DeleteSession removes a session and, via CASCADE, its messages.
func (r *chatRepository) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM assistant_sessions WHERE id = $1`

	result, err := r.db.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
