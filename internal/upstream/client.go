package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/woodchat/woodchat-backend/internal/config"
)

var (
	// ErrAPIKeyRequired is returned when the client has no API key configured
	ErrAPIKeyRequired = errors.New("upstream: api key is required")
	// ErrModelRequired is returned when a request names no model
	ErrModelRequired = errors.New("upstream: model is required")
)

// Client talks to a Responses-style streaming completion provider. A Client
// is constructed once and injected; it holds no per-request state.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a new upstream completion client
func NewClient(cfg config.UpstreamConfig, log *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 1800 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		maxRetries: retries,
		// The stream outlives any sane client-level timeout; the per-call
		// context carries the deadline instead.
		httpClient: &http.Client{},
		log:        log,
	}
}

type wireInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireThinking struct {
	Type string `json:"type"`
}

type wireRequest struct {
	Model              string       `json:"model"`
	Input              []wireInput  `json:"input"`
	Stream             bool         `json:"stream"`
	Thinking           wireThinking `json:"thinking"`
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
}

// OpenStream opens a streaming completion call and returns its event
// channel. Connection establishment is retried up to the configured count;
// once the channel is live the stream is never retried, so a mid-stream
// failure surfaces as a terminal error event instead of duplicate content.
// The channel is closed when the stream ends for any reason.
func (c *Client) OpenStream(ctx context.Context, req Request) (<-chan Event, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, ErrModelRequired
	}

	mode := req.Reasoning
	if mode == "" {
		mode = ReasoningEnabled
	}

	body, err := json.Marshal(wireRequest{
		Model:              req.Model,
		Input:              []wireInput{{Role: "user", Content: req.Input}},
		Stream:             true,
		Thinking:           wireThinking{Type: string(mode)},
		PreviousResponseID: req.PreviousResponseID,
	})
	if err != nil {
		return nil, err
	}

	// The deadline bounds the whole stream, not just the dial.
	streamCtx, cancel := context.WithTimeout(ctx, c.timeout)

	resp, err := c.connect(streamCtx, body)
	if err != nil {
		cancel()
		return nil, err
	}

	events := make(chan Event, 16)
	go func() {
		defer cancel()
		defer close(events)
		defer resp.Body.Close()
		c.readStream(streamCtx, resp.Body, events)
	}()

	return events, nil
}

// connect performs the POST with bounded retries for establishment failures.
func (c *Client) connect(ctx context.Context, body []byte) (*http.Response, error) {
	url := c.baseURL + "/responses"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
			c.log.WithField("attempt", attempt).Debug("retrying upstream connection")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		resp.Body.Close()
		lastErr = fmt.Errorf("upstream: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))

		// Only transient statuses are worth another attempt.
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// readStream parses SSE frames off the response body into events.
func (c *Client) readStream(ctx context.Context, body io.Reader, events chan<- Event) {
	sc := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 2*1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return
		}

		var ev Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			c.deliverError(ctx, events, fmt.Errorf("upstream: malformed event: %w", err))
			return
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}

		if ev.Type == EventTypeCompleted {
			return
		}
	}

	if err := sc.Err(); err != nil && ctx.Err() == nil {
		c.deliverError(ctx, events, fmt.Errorf("upstream: stream read: %w", err))
	}
}

func (c *Client) deliverError(ctx context.Context, events chan<- Event, err error) {
	select {
	case events <- Event{Type: EventTypeError, Err: err}:
	case <-ctx.Done():
	}
}
