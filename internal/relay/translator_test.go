package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woodchat/woodchat-backend/internal/upstream"
)

func createdEvent(id string) upstream.Event {
	return upstream.Event{
		Type:     upstream.EventTypeCreated,
		Response: &upstream.ResponseInfo{ID: id},
	}
}

func TestTranslatorLifecycle(t *testing.T) {
	tr := NewTranslator("test-model")
	assert.Equal(t, StateAwaitingStart, tr.State())

	chunk := tr.Translate(createdEvent("resp_abc"))
	assert.Nil(t, chunk, "created event produces no chunk")
	assert.Equal(t, StateStreaming, tr.State())
	assert.Equal(t, "resp_abc", tr.ResponseID())

	chunk = tr.Translate(upstream.Event{
		Type:   upstream.EventTypeReasoningDelta,
		ItemID: "item_1",
		Delta:  "thinking ",
	})
	require.NotNil(t, chunk)
	require.Len(t, chunk.Choices, 1)
	assert.Equal(t, "thinking ", chunk.Choices[0].Delta.ReasoningContent)
	assert.Empty(t, chunk.Choices[0].Delta.Content)
	assert.Equal(t, "test-model", chunk.Model)

	chunk = tr.Translate(upstream.Event{
		Type:   upstream.EventTypeOutputDelta,
		ItemID: "item_1",
		Delta:  "hello",
	})
	require.NotNil(t, chunk)
	require.Len(t, chunk.Choices, 1)
	assert.Equal(t, "hello", chunk.Choices[0].Delta.Content)
	assert.Empty(t, chunk.Choices[0].Delta.ReasoningContent)

	chunk = tr.Translate(upstream.Event{
		Type: upstream.EventTypeCompleted,
		Response: &upstream.ResponseInfo{
			ID:    "resp_abc",
			Usage: &upstream.Usage{TotalTokens: 42},
		},
	})
	require.NotNil(t, chunk)
	assert.Empty(t, chunk.Choices, "usage chunk carries no deltas")
	assert.Equal(t, 42, chunk.Usage)

	assert.Equal(t, StateCompleted, tr.State())
	assert.Equal(t, "thinking ", tr.Reasoning())
	assert.Equal(t, "hello", tr.Content())
	assert.Equal(t, 42, tr.Tokens())
}

func TestTranslatorAccumulatesAcrossDeltas(t *testing.T) {
	tr := NewTranslator("test-model")
	tr.Translate(createdEvent("resp_1"))

	for _, d := range []string{"a", "b", "c"} {
		tr.Translate(upstream.Event{Type: upstream.EventTypeOutputDelta, Delta: d})
	}
	for _, d := range []string{"x", "y"} {
		tr.Translate(upstream.Event{Type: upstream.EventTypeReasoningDelta, Delta: d})
	}

	assert.Equal(t, "abc", tr.Content())
	assert.Equal(t, "xy", tr.Reasoning())
}

func TestTranslatorResponseIDCapturedOnce(t *testing.T) {
	tr := NewTranslator("test-model")
	tr.Translate(createdEvent("resp_first"))
	tr.Translate(createdEvent("resp_second"))

	assert.Equal(t, "resp_first", tr.ResponseID())
	assert.Equal(t, StateStreaming, tr.State())
}

func TestTranslatorAbortRetainsBuffers(t *testing.T) {
	tr := NewTranslator("test-model")
	tr.Translate(createdEvent("resp_1"))
	tr.Translate(upstream.Event{Type: upstream.EventTypeOutputDelta, Delta: "partial"})

	tr.Abort()

	assert.Equal(t, StateAborted, tr.State())
	assert.Equal(t, "partial", tr.Content())
	assert.Zero(t, tr.Tokens())
}

func TestTranslatorAbortAfterCompleteIsNoop(t *testing.T) {
	tr := NewTranslator("test-model")
	tr.Translate(createdEvent("resp_1"))
	tr.Translate(upstream.Event{
		Type:     upstream.EventTypeCompleted,
		Response: &upstream.ResponseInfo{ID: "resp_1", Usage: &upstream.Usage{TotalTokens: 7}},
	})

	tr.Abort()

	assert.Equal(t, StateCompleted, tr.State())
	assert.Equal(t, 7, tr.Tokens())
}

func TestTranslatorIgnoresEventsAfterTerminalState(t *testing.T) {
	tr := NewTranslator("test-model")
	tr.Translate(createdEvent("resp_1"))
	tr.Translate(upstream.Event{
		Type:     upstream.EventTypeCompleted,
		Response: &upstream.ResponseInfo{ID: "resp_1"},
	})

	chunk := tr.Translate(upstream.Event{Type: upstream.EventTypeOutputDelta, Delta: "late"})
	assert.Nil(t, chunk)
	assert.Empty(t, tr.Content())
}

func TestTranslatorErrorEventAborts(t *testing.T) {
	tr := NewTranslator("test-model")
	tr.Translate(createdEvent("resp_1"))

	chunk := tr.Translate(upstream.Event{
		Type: upstream.EventTypeError,
		Err:  errors.New("boom"),
	})

	assert.Nil(t, chunk)
	assert.Equal(t, StateAborted, tr.State())
}

func TestTranslatorCompletedWithoutUsage(t *testing.T) {
	tr := NewTranslator("test-model")
	tr.Translate(createdEvent("resp_1"))

	chunk := tr.Translate(upstream.Event{
		Type:     upstream.EventTypeCompleted,
		Response: &upstream.ResponseInfo{ID: "resp_1"},
	})

	require.NotNil(t, chunk)
	assert.Zero(t, chunk.Usage)
	assert.Equal(t, StateCompleted, tr.State())
}
