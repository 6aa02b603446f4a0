package relay

import (
	"strings"

	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/upstream"
)

// State is the translator's position in the stream lifecycle.
type State int

const (
	// StateAwaitingStart means no created event has arrived yet.
	StateAwaitingStart State = iota
	// StateStreaming means the response id is captured and deltas may flow.
	StateStreaming
	// StateCompleted is the terminal success state.
	StateCompleted
	// StateAborted is the terminal failure state. Buffers accumulated
	// before the abort are retained.
	StateAborted
)

// Translator converts provider stream events into normalized chunks while
// accumulating the full reasoning and content text. It is not safe for
// concurrent use; each stream owns one Translator.
type Translator struct {
	state      State
	model      string
	responseID string
	reasoning  strings.Builder
	content    strings.Builder
	tokens     int
}

// NewTranslator creates a translator for one stream. model is the provider
// model identifier stamped onto every chunk.
func NewTranslator(model string) *Translator {
	return &Translator{state: StateAwaitingStart, model: model}
}

// Translate consumes one upstream event and returns the chunk to forward,
// or nil when the event produces no client-visible output. Events arriving
// after a terminal state are ignored.
func (t *Translator) Translate(ev upstream.Event) *Chunk {
	if t.state == StateCompleted || t.state == StateAborted {
		return nil
	}

	switch ev.Type {
	case upstream.EventTypeCreated:
		// The response id is captured exactly once; a duplicate created
		// event never overwrites it.
		if t.responseID == "" && ev.Response != nil {
			t.responseID = ev.Response.ID
		}
		t.state = StateStreaming
		return nil

	case upstream.EventTypeReasoningDelta:
		t.reasoning.WriteString(ev.Delta)
		return newChunk(ev.ItemID, t.model, []Choice{{
			Delta: Delta{Role: models.RoleAssistant, ReasoningContent: ev.Delta},
		}})

	case upstream.EventTypeOutputDelta:
		t.content.WriteString(ev.Delta)
		return newChunk(ev.ItemID, t.model, []Choice{{
			Delta: Delta{Role: models.RoleAssistant, Content: ev.Delta},
		}})

	case upstream.EventTypeCompleted:
		t.state = StateCompleted
		var id string
		if ev.Response != nil {
			id = ev.Response.ID
			if ev.Response.Usage != nil {
				t.tokens = ev.Response.Usage.TotalTokens
			}
		}
		chunk := newChunk(id, t.model, nil)
		chunk.Usage = t.tokens
		return chunk

	case upstream.EventTypeError:
		t.state = StateAborted
		return nil
	}

	return nil
}

// Abort moves the translator to its terminal failure state. No synthetic
// completion chunk is produced.
func (t *Translator) Abort() {
	if t.state != StateCompleted {
		t.state = StateAborted
	}
}

// State returns the current lifecycle state.
func (t *Translator) State() State { return t.state }

// ResponseID returns the captured upstream response id, if any.
func (t *Translator) ResponseID() string { return t.responseID }

// Content returns the accumulated content text.
func (t *Translator) Content() string { return t.content.String() }

// Reasoning returns the accumulated reasoning text.
func (t *Translator) Reasoning() string { return t.reasoning.String() }

// Tokens returns the usage reported on completion, zero otherwise.
func (t *Translator) Tokens() int { return t.tokens }
