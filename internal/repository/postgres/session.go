package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL chat session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new chat session
func (r *SessionRepository) Create(ctx context.Context, session *models.ChatSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	session.IsActive = true

	query := `
		INSERT INTO chat_sessions (id, user_id, title, is_active, created_at, updated_at)
		VALUES (:id, :user_id, :title, :is_active, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, session)
	return err
}

// Get retrieves a session by ID, scoped to its owner
func (r *SessionRepository) Get(ctx context.Context, userID, id uuid.UUID) (*models.ChatSession, error) {
	var session models.ChatSession
	query := `
		SELECT id, user_id, title, is_active, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2
	`

	if err := r.db.GetContext(ctx, &session, query, id, userID); err != nil {
		return nil, err
	}

	return &session, nil
}

// List retrieves the user's sessions, most recently updated first
func (r *SessionRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	query := `
		SELECT id, user_id, title, is_active, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Update updates a session's mutable fields
func (r *SessionRepository) Update(ctx context.Context, userID, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	setClause := ""
	params := map[string]interface{}{"id": id, "user_id": userID}

	for key, value := range updates {
		if setClause != "" {
			setClause += ", "
		}
		setClause += key + " = :" + key
		params[key] = value
	}

	query := "UPDATE chat_sessions SET " + setClause + " WHERE id = :id AND user_id = :user_id"

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete deletes a session; messages cascade at the schema level
func (r *SessionRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := "DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2"
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// requireRow maps a zero-row write to sql.ErrNoRows so callers can treat a
// missing or foreign session uniformly with missing reads.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
