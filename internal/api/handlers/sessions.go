package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/woodchat/woodchat-backend/internal/api/middleware"
	"github.com/woodchat/woodchat-backend/internal/api/response"
	"github.com/woodchat/woodchat-backend/internal/chat"
)

// SessionHandler serves the chat session endpoints.
type SessionHandler struct {
	chat *chat.Service
}

// NewSessionHandler creates a session handler
func NewSessionHandler(chatService *chat.Service) *SessionHandler {
	return &SessionHandler{chat: chatService}
}

// List handles GET /sessions
func (h *SessionHandler) List(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	sessions, err := h.chat.ListSessions(c.Context(), userCtx.UserID)
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, "failed to list sessions")
	}
	return response.Success(c, sessions)
}

// Get handles GET /sessions/:id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, fiber.StatusBadRequest, "invalid session id")
	}

	session, err := h.chat.GetSession(c.Context(), userCtx.UserID, id)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			return response.Error(c, fiber.StatusNotFound, "session not found")
		}
		return response.Error(c, fiber.StatusInternalServerError, "failed to get session")
	}
	return response.Success(c, session)
}

type updateSessionRequest struct {
	Title    *string `json:"title"`
	IsActive *bool   `json:"is_active"`
}

// Update handles PUT /sessions/:id
func (h *SessionHandler) Update(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, fiber.StatusBadRequest, "invalid session id")
	}

	var req updateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.chat.UpdateSession(c.Context(), userCtx.UserID, id, chat.SessionUpdate{
		Title:    req.Title,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			return response.Error(c, fiber.StatusNotFound, "session not found")
		}
		return response.Error(c, fiber.StatusBadRequest, err.Error())
	}
	return response.Success(c, session)
}

// Delete handles DELETE /sessions/:id
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, fiber.StatusBadRequest, "invalid session id")
	}

	if err := h.chat.DeleteSession(c.Context(), userCtx.UserID, id); err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			return response.Error(c, fiber.StatusNotFound, "session not found")
		}
		return response.Error(c, fiber.StatusInternalServerError, "failed to delete session")
	}
	return response.Message(c, "session deleted")
}
