package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatSession represents a chat conversation owned by one user.
// UpdatedAt is bumped whenever a message is appended.
type ChatSession struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ChatModel is an admin-managed model configuration. It is referenced by
// messages and never mutated on the request path.
type ChatModel struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	ModelID     string    `json:"model_id" db:"model_id"`
	EpID        *string   `json:"ep_id" db:"ep_id"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// ChatMessage represents one message in a session. ParentMessageID forms a
// reply chain within the same session; MessageRespID is the upstream response
// id used to continue a multi-turn exchange.
type ChatMessage struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	SessionID        uuid.UUID  `json:"session_id" db:"session_id"`
	Role             string     `json:"role" db:"role"`
	Content          string     `json:"content" db:"content"`
	ReasoningContent *string    `json:"reasoning_content" db:"reasoning_content"`
	ModelID          *uuid.UUID `json:"model_id" db:"model_id"`
	ParentMessageID  *uuid.UUID `json:"parent_message_id" db:"parent_message_id"`
	MessageRespID    *string    `json:"message_resp_id" db:"message_resp_id"`
	Tokens           int        `json:"tokens" db:"tokens"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}
