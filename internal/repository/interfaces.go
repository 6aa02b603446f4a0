package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/woodchat/woodchat-backend/internal/models"
)

// SessionRepository defines chat session storage operations. All reads and
// mutations are scoped to the owning user.
type SessionRepository interface {
	Create(ctx context.Context, session *models.ChatSession) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.ChatSession, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error)
	Update(ctx context.Context, userID, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// MessageRepository defines chat message storage operations.
type MessageRepository interface {
	// CreateAndTouchSession inserts the message and bumps the parent
	// session's updated_at in a single transaction.
	CreateAndTouchSession(ctx context.Context, message *models.ChatMessage) error
	// GetOwned returns the message only if its session belongs to userID.
	GetOwned(ctx context.Context, userID, id uuid.UUID) (*models.ChatMessage, error)
	// GetInSession returns the message only if it belongs to sessionID.
	GetInSession(ctx context.Context, sessionID, id uuid.UUID) (*models.ChatMessage, error)
	ListBySession(ctx context.Context, userID, sessionID uuid.UUID) ([]models.ChatMessage, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ChatMessage, error)
}

// ChatModelRepository defines model configuration storage. Configs are
// admin-managed; the request path only reads them.
type ChatModelRepository interface {
	Create(ctx context.Context, model *models.ChatModel) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatModel, error)
	GetByModelID(ctx context.Context, modelID string) (*models.ChatModel, error)
	List(ctx context.Context, activeOnly bool) ([]*models.ChatModel, error)
}

// UserRepository defines user account storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetEmailVerified(ctx context.Context, email string) error
	Deactivate(ctx context.Context, userID uuid.UUID) error
}

// UserSessionRepository defines auth session storage operations.
type UserSessionRepository interface {
	Create(ctx context.Context, session *models.UserSession) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.UserSession, error)
	GetByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*models.UserSession, error)
	RotateTokens(ctx context.Context, session *models.UserSession) error
	Revoke(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context) error
}
