package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository"
)

// MessageRepository implements repository.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `
	id, session_id, role, content, reasoning_content, model_id,
	parent_message_id, message_resp_id, tokens, created_at
`

// CreateAndTouchSession inserts the message and bumps the session's
// updated_at atomically, so an append can never leave the session timestamp
// behind the message timestamp.
func (r *MessageRepository) CreateAndTouchSession(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO chat_messages (id, session_id, role, content, reasoning_content,
			model_id, parent_message_id, message_resp_id, tokens, created_at)
		VALUES (:id, :session_id, :role, :content, :reasoning_content,
			:model_id, :parent_message_id, :message_resp_id, :tokens, :created_at)
	`
	if _, err := tx.NamedExecContext(ctx, insert, message); err != nil {
		return err
	}

	touch := `UPDATE chat_sessions SET updated_at = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, touch, message.CreatedAt, message.SessionID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetOwned retrieves a message by ID, scoped to the session owner
func (r *MessageRepository) GetOwned(ctx context.Context, userID, id uuid.UUID) (*models.ChatMessage, error) {
	var message models.ChatMessage
	query := `
		SELECT m.id, m.session_id, m.role, m.content, m.reasoning_content, m.model_id,
			m.parent_message_id, m.message_resp_id, m.tokens, m.created_at
		FROM chat_messages m
		JOIN chat_sessions s ON s.id = m.session_id
		WHERE m.id = $1 AND s.user_id = $2
	`

	if err := r.db.GetContext(ctx, &message, query, id, userID); err != nil {
		return nil, err
	}

	return &message, nil
}

// GetInSession retrieves a message by ID within a specific session
func (r *MessageRepository) GetInSession(ctx context.Context, sessionID, id uuid.UUID) (*models.ChatMessage, error) {
	var message models.ChatMessage
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE id = $1 AND session_id = $2
	`

	if err := r.db.GetContext(ctx, &message, query, id, sessionID); err != nil {
		return nil, err
	}

	return &message, nil
}

// ListBySession retrieves the session's messages in creation order,
// scoped to the session owner
func (r *MessageRepository) ListBySession(ctx context.Context, userID, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	query := `
		SELECT m.id, m.session_id, m.role, m.content, m.reasoning_content, m.model_id,
			m.parent_message_id, m.message_resp_id, m.tokens, m.created_at
		FROM chat_messages m
		JOIN chat_sessions s ON s.id = m.session_id
		WHERE m.session_id = $1 AND s.user_id = $2
		ORDER BY m.created_at ASC
	`

	if err := r.db.SelectContext(ctx, &messages, query, sessionID, userID); err != nil {
		return nil, err
	}

	return messages, nil
}

// ListByUser retrieves all of the user's messages across sessions
func (r *MessageRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	query := `
		SELECT m.id, m.session_id, m.role, m.content, m.reasoning_content, m.model_id,
			m.parent_message_id, m.message_resp_id, m.tokens, m.created_at
		FROM chat_messages m
		JOIN chat_sessions s ON s.id = m.session_id
		WHERE s.user_id = $1
		ORDER BY m.created_at ASC
	`

	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, err
	}

	return messages, nil
}
