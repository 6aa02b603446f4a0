package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository"
)

// ErrSessionNotFound is returned when the session does not exist or belongs
// to another user.
var ErrSessionNotFound = errors.New("chat session not found")

// Service covers the non-streaming chat surface: session CRUD, model
// listing and message history. All operations are scoped to the caller.
type Service struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
	configs  repository.ChatModelRepository
	log      *logrus.Logger
}

// NewService creates a chat service
func NewService(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	configs repository.ChatModelRepository,
	log *logrus.Logger,
) *Service {
	return &Service{sessions: sessions, messages: messages, configs: configs, log: log}
}

// ListSessions returns the caller's sessions, most recently active first.
func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	sessions, err := s.sessions.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns one owned session.
func (s *Service) GetSession(ctx context.Context, userID, id uuid.UUID) (*models.ChatSession, error) {
	session, err := s.sessions.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// SessionUpdate carries the mutable session fields; nil means unchanged.
type SessionUpdate struct {
	Title    *string
	IsActive *bool
}

// UpdateSession applies the update and returns the fresh row.
func (s *Service) UpdateSession(ctx context.Context, userID, id uuid.UUID, update SessionUpdate) (*models.ChatSession, error) {
	updates := make(map[string]interface{})
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, fmt.Errorf("title cannot be empty")
		}
		updates["title"] = title
	}
	if update.IsActive != nil {
		updates["is_active"] = *update.IsActive
	}

	if len(updates) > 0 {
		if err := s.sessions.Update(ctx, userID, id, updates); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
	}

	return s.GetSession(ctx, userID, id)
}

// DeleteSession removes the session; its messages cascade away with it.
func (s *Service) DeleteSession(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.sessions.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.log.WithFields(logrus.Fields{"session_id": id, "user_id": userID}).Info("chat session deleted")
	return nil
}

// ListModels returns the active model configurations.
func (s *Service) ListModels(ctx context.Context) ([]*models.ChatModel, error) {
	configs, err := s.configs.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return configs, nil
}

// ListMessages returns messages in one owned session in chronological order,
// or, when sessionID is nil, all of the caller's messages.
func (s *Service) ListMessages(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) ([]models.ChatMessage, error) {
	if sessionID == nil {
		messages, err := s.messages.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		return messages, nil
	}

	// An unknown or foreign session reads as not found, not an empty list.
	if _, err := s.sessions.Get(ctx, userID, *sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	messages, err := s.messages.ListBySession(ctx, userID, *sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
