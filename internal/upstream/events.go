package upstream

// ReasoningMode controls whether the provider emits chain-of-thought deltas.
type ReasoningMode string

const (
	ReasoningDisabled ReasoningMode = "disabled"
	ReasoningEnabled  ReasoningMode = "enabled"
	ReasoningAuto     ReasoningMode = "auto"
)

// ReasoningModeFromThinkType maps the wire-level think_type index onto a
// mode. Out-of-range values fall back to enabled, the historical default.
func ReasoningModeFromThinkType(thinkType int) ReasoningMode {
	switch thinkType {
	case 0:
		return ReasoningDisabled
	case 2:
		return ReasoningAuto
	default:
		return ReasoningEnabled
	}
}

// Event types emitted by the provider's response stream.
const (
	EventTypeCreated        = "response.created"
	EventTypeReasoningDelta = "response.reasoning_summary_text.delta"
	EventTypeOutputDelta    = "response.output_text.delta"
	EventTypeCompleted      = "response.completed"
	EventTypeError          = "error"
)

// Usage carries token accounting reported on completion.
type Usage struct {
	TotalTokens int `json:"total_tokens"`
}

// ResponseInfo identifies the upstream response and, on completion, its usage.
type ResponseInfo struct {
	ID    string `json:"id"`
	Usage *Usage `json:"usage,omitempty"`
}

// Event is one element of the upstream response stream. Err is set only on
// EventTypeError, which is always terminal.
type Event struct {
	Type     string        `json:"type"`
	ItemID   string        `json:"item_id,omitempty"`
	Delta    string        `json:"delta,omitempty"`
	Response *ResponseInfo `json:"response,omitempty"`
	Err      error         `json:"-"`
}

// Request describes one streaming completion call.
type Request struct {
	Model              string
	Input              string
	Reasoning          ReasoningMode
	PreviousResponseID string
}
