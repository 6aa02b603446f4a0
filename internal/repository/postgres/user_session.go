package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository"
)

// UserSessionRepository implements repository.UserSessionRepository using PostgreSQL
type UserSessionRepository struct {
	db *sqlx.DB
}

// NewUserSessionRepository creates a new PostgreSQL auth session repository
func NewUserSessionRepository(db *sqlx.DB) repository.UserSessionRepository {
	return &UserSessionRepository{db: db}
}

// Create creates a new auth session
func (r *UserSessionRepository) Create(ctx context.Context, session *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (id, user_id, token_hash, refresh_token_hash,
			expires_at, refresh_expires_at, created_at)
		VALUES (:id, :user_id, :token_hash, :refresh_token_hash,
			:expires_at, :refresh_expires_at, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, session)
	return err
}

// GetByTokenHash retrieves a non-revoked session by access token hash
func (r *UserSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.UserSession, error) {
	var session models.UserSession
	query := `
		SELECT id, user_id, token_hash, refresh_token_hash, expires_at,
			refresh_expires_at, created_at, revoked_at
		FROM user_sessions
		WHERE token_hash = $1 AND revoked_at IS NULL
	`

	if err := r.db.GetContext(ctx, &session, query, tokenHash); err != nil {
		return nil, err
	}

	return &session, nil
}

// GetByRefreshTokenHash retrieves a non-revoked session by refresh token hash
func (r *UserSessionRepository) GetByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*models.UserSession, error) {
	var session models.UserSession
	query := `
		SELECT id, user_id, token_hash, refresh_token_hash, expires_at,
			refresh_expires_at, created_at, revoked_at
		FROM user_sessions
		WHERE refresh_token_hash = $1 AND revoked_at IS NULL
	`

	if err := r.db.GetContext(ctx, &session, query, refreshTokenHash); err != nil {
		return nil, err
	}

	return &session, nil
}

// RotateTokens replaces the session's token hashes and expiry windows
func (r *UserSessionRepository) RotateTokens(ctx context.Context, session *models.UserSession) error {
	query := `
		UPDATE user_sessions
		SET token_hash = :token_hash, refresh_token_hash = :refresh_token_hash,
			expires_at = :expires_at, refresh_expires_at = :refresh_expires_at
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, session)
	return err
}

// Revoke marks the session as revoked
func (r *UserSessionRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE user_sessions SET revoked_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// DeleteExpired removes sessions whose refresh window has passed
func (r *UserSessionRepository) DeleteExpired(ctx context.Context) error {
	query := `DELETE FROM user_sessions WHERE refresh_expires_at < NOW()`
	_, err := r.db.ExecContext(ctx, query)
	return err
}
