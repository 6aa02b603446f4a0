package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive is returned when a user is inactive
	ErrUserInactive = errors.New("user account is inactive")
	// ErrEmailAlreadyExists is returned when email is already registered
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrUsernameAlreadyExists is returned when username is already taken
	ErrUsernameAlreadyExists = errors.New("username already exists")
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session is expired
	ErrSessionExpired = errors.New("session expired")
)

// Service handles authentication operations
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.UserSessionRepository
	jwt         *JWTService
	log         *logrus.Logger
}

// NewService creates a new auth service
func NewService(userRepo repository.UserRepository, sessionRepo repository.UserSessionRepository, jwtSecret string, log *logrus.Logger) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwt:         NewJWTService(jwtSecret, "woodchat"),
		log:         log,
	}
}

// ProfileUpdate carries mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name      *string
	Gender    *int
	AvatarURL *string
}

// Register registers a new user
func (s *Service) Register(ctx context.Context, username, email, password, name string) (*models.User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameAlreadyExists
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	// Display name defaults to the username.
	if name == "" {
		name = username
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Gender:       models.GenderUnspecified,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user by username and creates an auth session
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if !user.IsActive {
		return nil, "", "", ErrUserInactive
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", "", ErrInvalidCredentials
	}

	session := &models.UserSession{
		ID:               uuid.New(),
		UserID:           user.ID,
		ExpiresAt:        time.Now().Add(AccessTokenTTL),
		RefreshExpiresAt: time.Now().Add(RefreshTokenTTL),
		CreatedAt:        time.Now(),
	}

	accessToken, refreshToken, err := s.jwt.GenerateTokenPair(
		user.ID.String(), user.Email, user.Username, session.ID.String())
	if err != nil {
		return nil, "", "", err
	}

	session.TokenHash = HashToken(accessToken)
	session.RefreshTokenHash = HashToken(refreshToken)

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, "", "", err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.WithError(err).Warn("failed to update last login")
	}

	return user, accessToken, refreshToken, nil
}

// Refresh exchanges a refresh token for a new token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	session, err := s.sessionRepo.GetByRefreshTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrSessionNotFound
		}
		return "", "", err
	}

	if session.RefreshExpiresAt.Before(time.Now()) {
		return "", "", ErrSessionExpired
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return "", "", err
	}
	if !user.IsActive {
		return "", "", ErrUserInactive
	}

	newAccessToken, newRefreshToken, err := s.jwt.GenerateTokenPair(
		user.ID.String(), user.Email, user.Username, claims.SessionID)
	if err != nil {
		return "", "", err
	}

	session.TokenHash = HashToken(newAccessToken)
	session.RefreshTokenHash = HashToken(newRefreshToken)
	session.ExpiresAt = time.Now().Add(AccessTokenTTL)
	session.RefreshExpiresAt = time.Now().Add(RefreshTokenTTL)

	if err := s.sessionRepo.RotateTokens(ctx, session); err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}

// Logout revokes the session behind an access token
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	session, err := s.sessionRepo.GetByTokenHash(ctx, HashToken(accessToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	return s.sessionRepo.Revoke(ctx, session.ID)
}

// ValidateAccessToken validates an access token and returns the user
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (*models.User, *JWTClaims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}

	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now()) {
		return nil, nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	return user, claims, nil
}

// ChangePassword verifies the old password and sets a new one
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !CheckPassword(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

// ResetPassword sets a new password without the old one. Callers must have
// proven control of the account through email verification first.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(ctx, user.ID, hash)
}

// UpdateProfile applies the provided profile changes
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Gender != nil {
		user.Gender = *update.Gender
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Deactivate soft-deletes the account, matching the original destroy behavior
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.Deactivate(ctx, userID)
}

// GetUser returns the user by id
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
