package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/woodchat/woodchat-backend/internal/api/middleware"
	"github.com/woodchat/woodchat-backend/internal/api/response"
	"github.com/woodchat/woodchat-backend/internal/chat"
	"github.com/woodchat/woodchat-backend/internal/relay"
	"github.com/woodchat/woodchat-backend/internal/upstream"
)

// MessageHandler serves message history, message creation and the streaming
// assistant reply.
type MessageHandler struct {
	chat  *chat.Service
	relay *relay.Orchestrator
	log   *logrus.Logger
}

// NewMessageHandler creates a message handler
func NewMessageHandler(chatService *chat.Service, orchestrator *relay.Orchestrator, log *logrus.Logger) *MessageHandler {
	return &MessageHandler{chat: chatService, relay: orchestrator, log: log}
}

// List handles GET /messages?session_id=
func (h *MessageHandler) List(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var sessionID *uuid.UUID
	if raw := c.Query("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, fiber.StatusBadRequest, "invalid session_id")
		}
		sessionID = &id
	}

	messages, err := h.chat.ListMessages(c.Context(), userCtx.UserID, sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			return response.Error(c, fiber.StatusNotFound, "session not found")
		}
		return response.Error(c, fiber.StatusInternalServerError, "failed to list messages")
	}
	return response.Success(c, messages)
}

type createMessageRequest struct {
	SessionID       *uuid.UUID `json:"session_id"`
	Content         string     `json:"content"`
	ModelID         string     `json:"model_id"`
	ParentMessageID *uuid.UUID `json:"parent_message_id"`
	// Accepted for compatibility; only the ai-response call reads it.
	ThinkType *int `json:"think_type"`
}

// Create handles POST /messages, the synchronous half of the exchange.
func (h *MessageHandler) Create(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var req createMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	detail, err := h.relay.CreateUserMessage(c.Context(), userCtx.UserID, relay.CreateMessageInput{
		SessionID:       req.SessionID,
		Content:         req.Content,
		ModelID:         req.ModelID,
		ParentMessageID: req.ParentMessageID,
	})
	if err != nil {
		var verr *relay.ValidationError
		switch {
		case errors.As(err, &verr):
			return response.Error(c, fiber.StatusBadRequest, verr.Error())
		case errors.Is(err, relay.ErrSessionNotFound):
			return response.Error(c, fiber.StatusNotFound, "session not found")
		case errors.Is(err, relay.ErrModelNotFound):
			return response.Error(c, fiber.StatusNotFound, "model not found")
		case errors.Is(err, relay.ErrParentNotFound):
			return response.Error(c, fiber.StatusNotFound, "parent message not found in session")
		default:
			return response.Error(c, fiber.StatusInternalServerError, "failed to create message")
		}
	}

	return response.Created(c, detail)
}

type aiResponseRequest struct {
	UserMessageID uuid.UUID `json:"user_message_id"`
	ThinkType     *int      `json:"think_type"`
}

// StreamAIResponse handles POST /messages/ai-response, the streaming half.
// Validation failures surface as normal JSON errors; once the SSE stream is
// open, errors become best-effort error frames.
func (h *MessageHandler) StreamAIResponse(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var req aiResponseRequest
	if err := c.BodyParser(&req); err != nil || req.UserMessageID == uuid.Nil {
		return response.Error(c, fiber.StatusBadRequest, "user_message_id is required")
	}

	thinkType := 1
	if req.ThinkType != nil {
		thinkType = *req.ThinkType
	}
	mode := upstream.ReasoningModeFromThinkType(thinkType)

	// fasthttp's request context is not cancelled on client disconnect, so
	// the producer must be unblocked from the writer side: the writer
	// cancels this context when it exits, whether the stream drained
	// normally or the flush failed because the client dropped.
	ctx, cancel := context.WithCancel(c.Context())

	events, err := h.relay.StreamAssistantReply(ctx, userCtx.UserID, req.UserMessageID, mode)
	if err != nil {
		cancel()
		switch {
		case errors.Is(err, relay.ErrUserMessageNotFound):
			return response.Error(c, fiber.StatusNotFound, "user message not found")
		case errors.Is(err, relay.ErrSessionNotFound):
			return response.Error(c, fiber.StatusNotFound, "session not found")
		case errors.Is(err, relay.ErrModelNotFound):
			return response.Error(c, fiber.StatusNotFound, "model not found")
		default:
			return response.Error(c, fiber.StatusInternalServerError, "failed to start stream")
		}
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for ev := range events {
			payload, err := marshalStreamEvent(ev)
			if err != nil {
				h.log.WithError(err).Error("failed to marshal stream event")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// Client is gone; the deferred cancel unblocks the
				// producer so it can persist and exit.
				return
			}
		}
	}))

	return nil
}

func marshalStreamEvent(ev relay.StreamEvent) ([]byte, error) {
	switch {
	case ev.Err != nil:
		return json.Marshal(fiber.Map{"error": ev.Err.Error()})
	case ev.Envelope != nil:
		return json.Marshal(ev.Envelope)
	default:
		return json.Marshal(ev.Chunk)
	}
}
