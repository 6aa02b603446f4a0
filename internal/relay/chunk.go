package relay

import (
	"time"

	"github.com/google/uuid"
	"github.com/woodchat/woodchat-backend/internal/models"
)

// Delta is the incremental payload of one choice. Reasoning and content are
// separate channels; a single delta never carries both.
type Delta struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// Choice is one indexed completion choice within a chunk.
type Choice struct {
	Index        int    `json:"index"`
	Delta        Delta  `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Chunk is one normalized unit of streamed output forwarded to the client.
// A usage-bearing chunk carries an empty choice list and a non-zero Usage.
type Chunk struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Object  string   `json:"object"`
	Usage   int      `json:"usage,omitempty"`
}

func newChunk(id, model string, choices []Choice) *Chunk {
	if choices == nil {
		choices = []Choice{}
	}
	return &Chunk{
		ID:      id,
		Choices: choices,
		Created: time.Now().Unix(),
		Model:   model,
		Object:  "response",
	}
}

// Envelope frames the lifecycle events that bracket a stream.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Envelope types
const (
	EnvelopeMessageStart = "message_start"
	EnvelopeMessageEnd   = "message_end"
)

// StreamEvent is one element of the client-facing event sequence. Exactly
// one field is set: Chunk for deltas and usage, Envelope for lifecycle
// frames, Err for a best-effort terminal error.
type StreamEvent struct {
	Chunk    *Chunk
	Envelope *Envelope
	Err      error
}

// MessageStartData is the placeholder assistant-message shape sent before
// any delta, letting the client render a skeleton immediately.
type MessageStartData struct {
	ID               *uuid.UUID          `json:"id"`
	Role             string              `json:"role"`
	ReasoningContent string              `json:"reasoning_content"`
	Content          string              `json:"content"`
	CreatedAt        *time.Time          `json:"created_at"`
	Tokens           int                 `json:"tokens"`
	MessageRespID    *string             `json:"message_resp_id"`
	Session          *models.ChatSession `json:"session"`
	Model            *models.ChatModel   `json:"model"`
	ParentMessage    uuid.UUID           `json:"parent_message"`
}

// MessageEndData identifies the persisted assistant message.
type MessageEndData struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	MessageRespID *string   `json:"message_resp_id"`
	Tokens        int       `json:"tokens"`
}
