package relay

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woodchat/woodchat-backend/internal/models"
	"github.com/woodchat/woodchat-backend/internal/upstream"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.ChatSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*models.ChatSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = uuid.New()
	session.IsActive = true
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, userID, id uuid.UUID) (*models.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return nil, sql.ErrNoRows
	}
	out := *session
	return &out, nil
}

func (r *fakeSessionRepo) List(_ context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ChatSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, userID, id uuid.UUID, _ map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return sql.ErrNoRows
	}
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.sessions, id)
	return nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  map[uuid.UUID]*models.ChatMessage
	owners    map[uuid.UUID]uuid.UUID // session id -> user id
	createErr error
}

func newFakeMessageRepo(sessions *fakeSessionRepo) *fakeMessageRepo {
	owners := make(map[uuid.UUID]uuid.UUID)
	for id, s := range sessions.sessions {
		owners[id] = s.UserID
	}
	return &fakeMessageRepo{
		messages: make(map[uuid.UUID]*models.ChatMessage),
		owners:   owners,
	}
}

func (r *fakeMessageRepo) adopt(sessionID, userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[sessionID] = userID
}

func (r *fakeMessageRepo) CreateAndTouchSession(_ context.Context, message *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	stored := *message
	r.messages[message.ID] = &stored
	return nil
}

func (r *fakeMessageRepo) GetOwned(_ context.Context, userID, id uuid.UUID) (*models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok || r.owners[message.SessionID] != userID {
		return nil, sql.ErrNoRows
	}
	out := *message
	return &out, nil
}

func (r *fakeMessageRepo) GetInSession(_ context.Context, sessionID, id uuid.UUID) (*models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok || message.SessionID != sessionID {
		return nil, sql.ErrNoRows
	}
	out := *message
	return &out, nil
}

func (r *fakeMessageRepo) ListBySession(_ context.Context, userID, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners[sessionID] != userID {
		return nil, sql.ErrNoRows
	}
	var out []models.ChatMessage
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range r.messages {
		if r.owners[m.SessionID] == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) assistantMessages() []models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range r.messages {
		if m.Role == models.RoleAssistant {
			out = append(out, *m)
		}
	}
	return out
}

type fakeModelRepo struct {
	models map[string]*models.ChatModel
}

func newFakeModelRepo(configs ...*models.ChatModel) *fakeModelRepo {
	r := &fakeModelRepo{models: make(map[string]*models.ChatModel)}
	for _, m := range configs {
		r.models[m.ModelID] = m
	}
	return r
}

func (r *fakeModelRepo) Create(_ context.Context, m *models.ChatModel) error {
	r.models[m.ModelID] = m
	return nil
}

func (r *fakeModelRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ChatModel, error) {
	for _, m := range r.models {
		if m.ID == id {
			out := *m
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeModelRepo) GetByModelID(_ context.Context, modelID string) (*models.ChatModel, error) {
	m, ok := r.models[modelID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *m
	return &out, nil
}

func (r *fakeModelRepo) List(_ context.Context, _ bool) ([]*models.ChatModel, error) {
	var out []*models.ChatModel
	for _, m := range r.models {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

// fakeUpstream replays a scripted event sequence. When hold is non-nil the
// stream blocks after emitting the events until hold is closed, simulating a
// stalled provider.
type fakeUpstream struct {
	mu      sync.Mutex
	events  []upstream.Event
	openErr error
	hold    chan struct{}
	lastReq upstream.Request
}

func (f *fakeUpstream) OpenStream(ctx context.Context, req upstream.Request) (<-chan upstream.Event, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	out := make(chan upstream.Event)
	go func() {
		defer close(out)
		for _, ev := range f.events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
		if f.hold != nil {
			select {
			case <-f.hold:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (f *fakeUpstream) request() upstream.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type orchestratorFixture struct {
	orch     *Orchestrator
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
	up       *fakeUpstream
	userID   uuid.UUID
	model    *models.ChatModel
}

func newFixture(t *testing.T, up *fakeUpstream) *orchestratorFixture {
	t.Helper()
	sessions := newFakeSessionRepo()
	messages := newFakeMessageRepo(sessions)
	model := &models.ChatModel{
		ID:       uuid.New(),
		Name:     "Test Model",
		ModelID:  "test-model-v1",
		IsActive: true,
	}
	configs := newFakeModelRepo(model)
	return &orchestratorFixture{
		orch:     NewOrchestrator(sessions, messages, configs, up, testLogger()),
		sessions: sessions,
		messages: messages,
		up:       up,
		userID:   uuid.New(),
		model:    model,
	}
}

// seedUserMessage persists a user message in a fresh session and returns it.
func (f *orchestratorFixture) seedUserMessage(t *testing.T, content string) *models.ChatMessage {
	t.Helper()
	detail, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		Content: content,
		ModelID: f.model.ModelID,
	})
	require.NoError(t, err)
	f.messages.adopt(detail.SessionID, f.userID)
	return &detail.ChatMessage
}

func collect(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var out []StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func happyPathEvents() []upstream.Event {
	return []upstream.Event{
		{Type: upstream.EventTypeCreated, Response: &upstream.ResponseInfo{ID: "resp_123"}},
		{Type: upstream.EventTypeReasoningDelta, ItemID: "item_1", Delta: "let me think"},
		{Type: upstream.EventTypeOutputDelta, ItemID: "item_1", Delta: "Hello, "},
		{Type: upstream.EventTypeOutputDelta, ItemID: "item_1", Delta: "world"},
		{Type: upstream.EventTypeCompleted, Response: &upstream.ResponseInfo{
			ID:    "resp_123",
			Usage: &upstream.Usage{TotalTokens: 99},
		}},
	}
}

func TestCreateUserMessageNewSession(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})

	detail, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		Content: "What is the capital of France?",
		ModelID: f.model.ModelID,
	})
	require.NoError(t, err)

	require.NotNil(t, detail.Session)
	assert.Equal(t, "What is the capital ", detail.Session.Title, "title keeps the first 20 runes")
	assert.Equal(t, f.userID, detail.Session.UserID)
	assert.Equal(t, models.RoleUser, detail.Role)
	assert.Nil(t, detail.ParentMessageID)
	require.NotNil(t, detail.Model)
	assert.Equal(t, f.model.ID, detail.Model.ID)
}

func TestCreateUserMessageShortTitleKeptWhole(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})

	detail, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		Content: "hi",
		ModelID: f.model.ModelID,
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", detail.Session.Title)
}

func TestCreateUserMessageMultibyteTitle(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})

	content := strings.Repeat("日", 30)
	detail, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		Content: content,
		ModelID: f.model.ModelID,
	})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("日", 20), detail.Session.Title)
}

func TestCreateUserMessageIgnoresParentForNewSession(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})
	stray := uuid.New()

	detail, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		Content:         "fresh start",
		ModelID:         f.model.ModelID,
		ParentMessageID: &stray,
	})
	require.NoError(t, err)
	assert.Nil(t, detail.ParentMessageID)
}

func TestCreateUserMessageValidation(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})

	_, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		ModelID: f.model.ModelID,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)

	_, err = f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		Content: "hello",
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "model_id", verr.Field)
}

func TestCreateUserMessageUnknownSession(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})
	missing := uuid.New()

	_, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		SessionID: &missing,
		Content:   "hello",
		ModelID:   f.model.ModelID,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateUserMessageForeignSessionHidden(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})
	other := f.seedUserMessage(t, "someone else's chat")

	_, err := f.orch.CreateUserMessage(context.Background(), uuid.New(), CreateMessageInput{
		SessionID: &other.SessionID,
		Content:   "hello",
		ModelID:   f.model.ModelID,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateUserMessageUnknownModel(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})

	_, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		Content: "hello",
		ModelID: "no-such-model",
	})
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestCreateUserMessageParentOutsideSession(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})
	first := f.seedUserMessage(t, "session one")
	second := f.seedUserMessage(t, "session two")

	_, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		SessionID:       &second.SessionID,
		Content:         "reply",
		ModelID:         f.model.ModelID,
		ParentMessageID: &first.ID,
	})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestStreamAssistantReplyHappyPath(t *testing.T) {
	up := &fakeUpstream{events: happyPathEvents()}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "say hello")

	events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, userMsg.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)

	got := collect(t, events)
	require.NotEmpty(t, got)

	require.NotNil(t, got[0].Envelope)
	assert.Equal(t, EnvelopeMessageStart, got[0].Envelope.Type)
	startData, ok := got[0].Envelope.Data.(MessageStartData)
	require.True(t, ok)
	assert.Equal(t, userMsg.ID, startData.ParentMessage)
	assert.Equal(t, models.RoleAssistant, startData.Role)

	last := got[len(got)-1]
	require.NotNil(t, last.Envelope)
	assert.Equal(t, EnvelopeMessageEnd, last.Envelope.Type)
	endData, ok := last.Envelope.Data.(MessageEndData)
	require.True(t, ok)
	assert.Equal(t, 99, endData.Tokens)
	require.NotNil(t, endData.MessageRespID)
	assert.Equal(t, "resp_123", *endData.MessageRespID)

	var reasoning, content string
	for _, ev := range got[1 : len(got)-1] {
		require.NotNil(t, ev.Chunk)
		for _, choice := range ev.Chunk.Choices {
			reasoning += choice.Delta.ReasoningContent
			content += choice.Delta.Content
		}
	}
	assert.Equal(t, "let me think", reasoning)
	assert.Equal(t, "Hello, world", content)

	stored := f.messages.assistantMessages()
	require.Len(t, stored, 1, "exactly one assistant message persisted")
	assert.Equal(t, "Hello, world", stored[0].Content)
	require.NotNil(t, stored[0].ReasoningContent)
	assert.Equal(t, "let me think", *stored[0].ReasoningContent)
	assert.Equal(t, 99, stored[0].Tokens)
	require.NotNil(t, stored[0].MessageRespID)
	assert.Equal(t, "resp_123", *stored[0].MessageRespID)
	require.NotNil(t, stored[0].ParentMessageID)
	assert.Equal(t, userMsg.ID, *stored[0].ParentMessageID)
	assert.Equal(t, userMsg.SessionID, stored[0].SessionID)
}

func TestStreamAssistantReplyContinuation(t *testing.T) {
	up := &fakeUpstream{events: happyPathEvents()}
	f := newFixture(t, up)
	first := f.seedUserMessage(t, "turn one")

	events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, first.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)
	collect(t, events)

	assistants := f.messages.assistantMessages()
	require.Len(t, assistants, 1)

	followUp, err := f.orch.CreateUserMessage(context.Background(), f.userID, CreateMessageInput{
		SessionID:       &first.SessionID,
		Content:         "turn two",
		ModelID:         f.model.ModelID,
		ParentMessageID: &assistants[0].ID,
	})
	require.NoError(t, err)

	events, err = f.orch.StreamAssistantReply(context.Background(), f.userID, followUp.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)
	collect(t, events)

	assert.Equal(t, "resp_123", up.request().PreviousResponseID,
		"second turn continues from the parent's response id")
	assert.Equal(t, "turn two", up.request().Input)
}

func TestStreamAssistantReplyNoContinuationWithoutParentRespID(t *testing.T) {
	up := &fakeUpstream{events: happyPathEvents()}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "first turn")

	events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, userMsg.ID, upstream.ReasoningDisabled)
	require.NoError(t, err)
	collect(t, events)

	assert.Empty(t, up.request().PreviousResponseID)
	assert.Equal(t, upstream.ReasoningDisabled, up.request().Reasoning)
}

func TestStreamAssistantReplyUpstreamOpenFailure(t *testing.T) {
	up := &fakeUpstream{openErr: errors.New("connect refused")}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "doomed")

	events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, userMsg.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)

	got := collect(t, events)

	var sawErr bool
	for _, ev := range got {
		if ev.Err != nil {
			sawErr = true
		}
	}
	assert.True(t, sawErr, "open failure surfaces as an error event")

	stored := f.messages.assistantMessages()
	require.Len(t, stored, 1, "assistant message persisted even on open failure")
	assert.Empty(t, stored[0].Content)
	assert.Zero(t, stored[0].Tokens)
	assert.Nil(t, stored[0].MessageRespID)
}

func TestStreamAssistantReplyMidStreamError(t *testing.T) {
	up := &fakeUpstream{events: []upstream.Event{
		{Type: upstream.EventTypeCreated, Response: &upstream.ResponseInfo{ID: "resp_err"}},
		{Type: upstream.EventTypeOutputDelta, Delta: "partial "},
		{Type: upstream.EventTypeError, Err: errors.New("stream reset")},
	}}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "flaky")

	events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, userMsg.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)
	got := collect(t, events)

	var sawErr bool
	for _, ev := range got {
		if ev.Err != nil {
			sawErr = true
		}
	}
	assert.True(t, sawErr)

	stored := f.messages.assistantMessages()
	require.Len(t, stored, 1)
	assert.Equal(t, "partial ", stored[0].Content, "partial content survives the abort")
	assert.Zero(t, stored[0].Tokens)
	assert.Nil(t, stored[0].MessageRespID, "aborted stream stores no response id")
}

func TestStreamAssistantReplyStreamEndsWithoutCompletion(t *testing.T) {
	up := &fakeUpstream{events: []upstream.Event{
		{Type: upstream.EventTypeCreated, Response: &upstream.ResponseInfo{ID: "resp_trunc"}},
		{Type: upstream.EventTypeOutputDelta, Delta: "cut off"},
	}}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "truncated")

	events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, userMsg.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)
	collect(t, events)

	stored := f.messages.assistantMessages()
	require.Len(t, stored, 1)
	assert.Equal(t, "cut off", stored[0].Content)
	assert.Zero(t, stored[0].Tokens)
	assert.Nil(t, stored[0].MessageRespID)
}

func TestStreamAssistantReplyClientDisconnect(t *testing.T) {
	hold := make(chan struct{})
	defer close(hold)
	up := &fakeUpstream{
		events: []upstream.Event{
			{Type: upstream.EventTypeCreated, Response: &upstream.ResponseInfo{ID: "resp_gone"}},
			{Type: upstream.EventTypeOutputDelta, Delta: "before the drop"},
		},
		hold: hold,
	}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "walk away")

	ctx, cancel := context.WithCancel(context.Background())
	events, err := f.orch.StreamAssistantReply(ctx, f.userID, userMsg.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)

	// Read until the delta arrives, then drop the connection.
	timeout := time.After(5 * time.Second)
	for sawDelta := false; !sawDelta; {
		select {
		case ev := <-events:
			if ev.Chunk != nil && len(ev.Chunk.Choices) > 0 && ev.Chunk.Choices[0].Delta.Content != "" {
				sawDelta = true
			}
		case <-timeout:
			t.Fatal("timed out waiting for delta")
		}
	}
	cancel()

	// Persistence runs on a detached context; wait for it.
	require.Eventually(t, func() bool {
		return len(f.messages.assistantMessages()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	stored := f.messages.assistantMessages()
	assert.Equal(t, "before the drop", stored[0].Content)
	assert.Zero(t, stored[0].Tokens)
	assert.Nil(t, stored[0].MessageRespID)
}

func TestStreamAssistantReplyPersistFailureSwallowed(t *testing.T) {
	up := &fakeUpstream{events: happyPathEvents()}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "store breaks")
	f.messages.createErr = errors.New("db gone")

	events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, userMsg.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)
	got := collect(t, events)

	for _, ev := range got {
		if ev.Envelope != nil {
			assert.NotEqual(t, EnvelopeMessageEnd, ev.Envelope.Type,
				"no message_end when persistence fails")
		}
	}
}

func TestStreamAssistantReplyDuplicateCallsNotDeduplicated(t *testing.T) {
	up := &fakeUpstream{events: happyPathEvents()}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "ask twice")

	for i := 0; i < 2; i++ {
		events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, userMsg.ID, upstream.ReasoningEnabled)
		require.NoError(t, err)
		collect(t, events)
	}

	stored := f.messages.assistantMessages()
	require.Len(t, stored, 2, "each call persists its own assistant message")
	for _, m := range stored {
		require.NotNil(t, m.ParentMessageID)
		assert.Equal(t, userMsg.ID, *m.ParentMessageID)
	}
}

func TestStreamAssistantReplyUnknownMessage(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})

	_, err := f.orch.StreamAssistantReply(context.Background(), f.userID, uuid.New(), upstream.ReasoningEnabled)
	assert.ErrorIs(t, err, ErrUserMessageNotFound)
}

func TestStreamAssistantReplyForeignMessageHidden(t *testing.T) {
	f := newFixture(t, &fakeUpstream{})
	userMsg := f.seedUserMessage(t, "mine")

	_, err := f.orch.StreamAssistantReply(context.Background(), uuid.New(), userMsg.ID, upstream.ReasoningEnabled)
	assert.ErrorIs(t, err, ErrUserMessageNotFound)
}

func TestStreamAssistantReplyRejectsAssistantMessage(t *testing.T) {
	up := &fakeUpstream{events: happyPathEvents()}
	f := newFixture(t, up)
	userMsg := f.seedUserMessage(t, "roles matter")

	events, err := f.orch.StreamAssistantReply(context.Background(), f.userID, userMsg.ID, upstream.ReasoningEnabled)
	require.NoError(t, err)
	collect(t, events)

	assistants := f.messages.assistantMessages()
	require.Len(t, assistants, 1)

	_, err = f.orch.StreamAssistantReply(context.Background(), f.userID, assistants[0].ID, upstream.ReasoningEnabled)
	assert.ErrorIs(t, err, ErrUserMessageNotFound)
}
