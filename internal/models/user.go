package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender values follow the original account schema.
const (
	GenderUnspecified = 0
	GenderMale        = 1
	GenderFemale      = 2
)

// User represents an account in the system
type User struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Username      string     `json:"username" db:"username"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"` // Never expose
	Name          string     `json:"name" db:"name"`
	Gender        int        `json:"gender" db:"gender"`
	AvatarURL     string     `json:"avatar_url" db:"avatar_url"`
	EmailVerified bool       `json:"email_verified" db:"email_verified"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at" db:"last_login_at"`
}

// UserSession represents an active auth session
type UserSession struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash        string     `json:"-" db:"token_hash"`
	RefreshTokenHash string     `json:"-" db:"refresh_token_hash"`
	ExpiresAt        time.Time  `json:"expires_at" db:"expires_at"`
	RefreshExpiresAt time.Time  `json:"refresh_expires_at" db:"refresh_expires_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	RevokedAt        *time.Time `json:"revoked_at" db:"revoked_at"`
}

// UserContext represents the authenticated caller for authorization
type UserContext struct {
	UserID   uuid.UUID
	Username string
	Email    string
}
