package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/woodchat/woodchat-backend/internal/api/response"
	"github.com/woodchat/woodchat-backend/internal/chat"
)

// ModelHandler serves the chat model listing.
type ModelHandler struct {
	chat *chat.Service
}

// NewModelHandler creates a model handler
func NewModelHandler(chatService *chat.Service) *ModelHandler {
	return &ModelHandler{chat: chatService}
}

// List handles GET /models
func (h *ModelHandler) List(c *fiber.Ctx) error {
	configs, err := h.chat.ListModels(c.Context())
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, "failed to list models")
	}
	return response.Success(c, configs)
}
