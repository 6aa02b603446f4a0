package relay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/repository"
	"github.com/woodchat/woodchat-backend/internal/upstream"
)

var (
	// ErrSessionNotFound is returned when the session is absent or owned by
	// someone else.
	ErrSessionNotFound = errors.New("chat session not found or not accessible")
	// ErrModelNotFound is returned when the model config cannot be resolved.
	ErrModelNotFound = errors.New("chat model not found")
	// ErrParentNotFound is returned when the parent message does not belong
	// to the same session.
	ErrParentNotFound = errors.New("parent message not found in session")
	// ErrUserMessageNotFound is returned when the triggering message is
	// absent, not owned by the caller, or not a user message.
	ErrUserMessageNotFound = errors.New("user message not found or not accessible")
)

// ValidationError reports a bad or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// sessionTitleLimit is the number of leading runes of the first message
// used as a new session's title.
const sessionTitleLimit = 20

// persistTimeout bounds the guaranteed-cleanup store write; it is detached
// from the request context so a client disconnect cannot skip it.
const persistTimeout = 10 * time.Second

// UpstreamOpener abstracts the completion provider so the orchestrator can
// be tested against a fake.
type UpstreamOpener interface {
	OpenStream(ctx context.Context, req upstream.Request) (<-chan upstream.Event, error)
}

// Orchestrator drives the two-phase submit-and-stream protocol: a
// synchronous phase that persists the user message, and a streaming phase
// that relays the upstream completion while guaranteeing exactly one stored
// assistant message per call.
type Orchestrator struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
	configs  repository.ChatModelRepository
	upstream UpstreamOpener
	log      *logrus.Logger
}

// NewOrchestrator creates a relay orchestrator
func NewOrchestrator(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	configs repository.ChatModelRepository,
	up UpstreamOpener,
	log *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		messages: messages,
		configs:  configs,
		upstream: up,
		log:      log,
	}
}

// CreateMessageInput carries the synchronous-phase request fields.
type CreateMessageInput struct {
	SessionID       *uuid.UUID
	Content         string
	ModelID         string // provider model identifier
	ParentMessageID *uuid.UUID
}

// MessageDetail is a stored message together with its resolved session and
// model config, matching the non-streaming response shape.
type MessageDetail struct {
	models.ChatMessage
	Session *models.ChatSession `json:"session"`
	Model   *models.ChatModel   `json:"model"`
}

// CreateUserMessage is the synchronous phase: it resolves or creates the
// session, validates model and parent, persists the user message and bumps
// the session timestamp atomically.
func (o *Orchestrator) CreateUserMessage(ctx context.Context, userID uuid.UUID, input CreateMessageInput) (*MessageDetail, error) {
	if input.Content == "" {
		return nil, &ValidationError{Field: "content", Message: "content is required"}
	}
	if input.ModelID == "" {
		return nil, &ValidationError{Field: "model_id", Message: "model_id is required"}
	}

	var session *models.ChatSession
	parentID := input.ParentMessageID

	if input.SessionID == nil {
		session = &models.ChatSession{
			UserID: userID,
			Title:  truncateTitle(input.Content),
		}
		if err := o.sessions.Create(ctx, session); err != nil {
			return nil, err
		}
		// A brand-new session has no history to reply to.
		parentID = nil
	} else {
		var err error
		session, err = o.sessions.Get(ctx, userID, *input.SessionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
	}

	model, err := o.configs.GetByModelID(ctx, input.ModelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}

	if parentID != nil {
		if _, err := o.messages.GetInSession(ctx, session.ID, *parentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
	}

	message := &models.ChatMessage{
		SessionID:       session.ID,
		Role:            models.RoleUser,
		Content:         input.Content,
		ModelID:         &model.ID,
		ParentMessageID: parentID,
	}

	if err := o.messages.CreateAndTouchSession(ctx, message); err != nil {
		return nil, err
	}
	session.UpdatedAt = message.CreatedAt

	return &MessageDetail{ChatMessage: *message, Session: session, Model: model}, nil
}

// StreamAssistantReply is the streaming phase. Validation happens before
// the channel is returned; everything after that is delivered as stream
// events. The assistant message is persisted exactly once on every exit
// path, including client disconnect and upstream failure.
func (o *Orchestrator) StreamAssistantReply(ctx context.Context, userID, userMessageID uuid.UUID, mode upstream.ReasoningMode) (<-chan StreamEvent, error) {
	userMsg, err := o.messages.GetOwned(ctx, userID, userMessageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserMessageNotFound
		}
		return nil, err
	}
	if userMsg.Role != models.RoleUser {
		return nil, ErrUserMessageNotFound
	}

	session, err := o.sessions.Get(ctx, userID, userMsg.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if userMsg.ModelID == nil {
		return nil, ErrModelNotFound
	}
	model, err := o.configs.GetByID(ctx, *userMsg.ModelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}

	// Continue the upstream exchange only when the parent message itself
	// carries a response id; otherwise start fresh context.
	var previousResponseID string
	if userMsg.ParentMessageID != nil {
		parent, err := o.messages.GetInSession(ctx, session.ID, *userMsg.ParentMessageID)
		if err == nil && parent.MessageRespID != nil {
			previousResponseID = *parent.MessageRespID
		}
	}

	events := make(chan StreamEvent, 16)
	go o.run(ctx, events, session, model, userMsg, mode, previousResponseID)

	return events, nil
}

// run owns the streaming pipeline for one request. The persist step is
// registered as a deferred block so that normal completion, upstream
// errors, and consumer cancellation all reach it exactly once.
func (o *Orchestrator) run(
	ctx context.Context,
	events chan StreamEvent,
	session *models.ChatSession,
	model *models.ChatModel,
	userMsg *models.ChatMessage,
	mode upstream.ReasoningMode,
	previousResponseID string,
) {
	tr := NewTranslator(model.ModelID)

	defer close(events)
	defer o.persistAndFinish(ctx, events, tr, session, model, userMsg)

	start := StreamEvent{Envelope: &Envelope{
		Type: EnvelopeMessageStart,
		Data: MessageStartData{
			Role:          models.RoleAssistant,
			Session:       session,
			Model:         model,
			ParentMessage: userMsg.ID,
		},
	}}
	if !o.send(ctx, events, start) {
		tr.Abort()
		return
	}

	stream, err := o.upstream.OpenStream(ctx, upstream.Request{
		Model:              model.ModelID,
		Input:              userMsg.Content,
		Reasoning:          mode,
		PreviousResponseID: previousResponseID,
	})
	if err != nil {
		tr.Abort()
		o.log.WithError(err).Warn("failed to open upstream stream")
		o.send(ctx, events, StreamEvent{Err: err})
		return
	}

	for ev := range stream {
		if ev.Type == upstream.EventTypeError {
			tr.Abort()
			o.log.WithError(ev.Err).Warn("upstream stream failed mid-flight")
			o.send(ctx, events, StreamEvent{Err: ev.Err})
			return
		}

		chunk := tr.Translate(ev)
		if chunk == nil {
			continue
		}
		if !o.send(ctx, events, StreamEvent{Chunk: chunk}) {
			// Consumer is gone; stop draining so the upstream call can
			// be cancelled, but still fall through to persistence.
			tr.Abort()
			return
		}
	}

	// Stream closed without a completion event.
	tr.Abort()
}

// persistAndFinish stores the assembled assistant message and emits the
// message_end frame if the consumer is still reachable. Store failures here
// are logged and swallowed; the stream has already ended and there is no
// channel left to report them on.
func (o *Orchestrator) persistAndFinish(
	ctx context.Context,
	events chan StreamEvent,
	tr *Translator,
	session *models.ChatSession,
	model *models.ChatModel,
	userMsg *models.ChatMessage,
) {
	message := &models.ChatMessage{
		SessionID:       session.ID,
		Role:            models.RoleAssistant,
		Content:         tr.Content(),
		ModelID:         &model.ID,
		ParentMessageID: &userMsg.ID,
	}
	if reasoning := tr.Reasoning(); reasoning != "" {
		message.ReasoningContent = &reasoning
	}
	// Usage and response id count only when the upstream reported
	// completion; an aborted stream keeps its partial content but stores
	// zero tokens and no response id.
	if tr.State() == StateCompleted {
		message.Tokens = tr.Tokens()
		if respID := tr.ResponseID(); respID != "" {
			message.MessageRespID = &respID
		}
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := o.messages.CreateAndTouchSession(persistCtx, message); err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"session_id":      session.ID,
			"user_message_id": userMsg.ID,
		}).Error("failed to persist assistant message")
		return
	}

	o.send(ctx, events, StreamEvent{Envelope: &Envelope{
		Type: EnvelopeMessageEnd,
		Data: MessageEndData{
			ID:            message.ID,
			CreatedAt:     message.CreatedAt,
			MessageRespID: message.MessageRespID,
			Tokens:        message.Tokens,
		},
	}})
}

// send forwards one event unless the consumer has gone away.
func (o *Orchestrator) send(ctx context.Context, events chan StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// truncateTitle derives a session title from the first message content,
// keeping at most sessionTitleLimit runes.
func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= sessionTitleLimit {
		return content
	}
	return string(runes[:sessionTitleLimit])
}
