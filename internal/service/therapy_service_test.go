package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"ai-therapy-be/internal/constant"
	"ai-therapy-be/internal/dto"
	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/repository/contract"
	"ai-therapy-be/internal/repository/specification"
	"ai-therapy-be/internal/repository/unitofwork"
	"ai-therapy-be/pkg/events"
	"ai-therapy-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- in-memory store and fakes ----

type fakeStore struct {
	users    []*entity.User
	sessions []*entity.TherapySession
	messages []*entity.TherapyMessage

	seq        int64
	pending    []*entity.TherapyMessage
	inTx       bool
	committed  bool
	rolledBack bool
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error {
	u.store.inTx = true
	return nil
}

func (u *fakeUow) Commit() error {
	u.store.messages = append(u.store.messages, u.store.pending...)
	u.store.pending = nil
	u.store.inTx = false
	u.store.committed = true
	return nil
}

func (u *fakeUow) Rollback() error {
	if u.store.inTx {
		u.store.pending = nil
		u.store.inTx = false
		u.store.rolledBack = true
	}
	return nil
}

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUow) TherapySessionRepository() contract.TherapySessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUow) TherapyMessageRepository() contract.TherapyMessageRepository {
	return &fakeMessageRepo{store: u.store}
}

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.users = append(r.store.users, user)
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, user := range r.store.users {
		if userMatches(user, specs) {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, user := range r.store.users {
		if userMatches(user, specs) {
			n++
		}
	}
	return n, nil
}

func userMatches(user *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if user.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if user.Email != s.Email {
				return false
			}
		}
	}
	return true
}

type fakeSessionRepo struct {
	store *fakeStore
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.TherapySession) error {
	r.store.sessions = append(r.store.sessions, session)
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.TherapySession) error {
	for i, existing := range r.store.sessions {
		if existing.Id == session.Id {
			r.store.sessions[i] = session
			return nil
		}
	}
	return errors.New("session not found")
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TherapySession, error) {
	for _, session := range r.store.sessions {
		if sessionMatches(session, specs) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TherapySession, error) {
	var out []*entity.TherapySession
	for _, session := range r.store.sessions {
		if sessionMatches(session, specs) {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, session := range r.store.sessions {
		if sessionMatches(session, specs) {
			n++
		}
	}
	return n, nil
}

func sessionMatches(session *entity.TherapySession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByToken:
			if session.Token != s.Token {
				return false
			}
		case specification.OwnedBy:
			if session.UserId != s.UserID {
				return false
			}
		case specification.ByID:
			if session.Id != s.ID {
				return false
			}
		}
	}
	return true
}

type fakeMessageRepo struct {
	store *fakeStore
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.TherapyMessage) error {
	return r.CreateBulk(ctx, []*entity.TherapyMessage{message})
}

func (r *fakeMessageRepo) CreateBulk(ctx context.Context, messages []*entity.TherapyMessage) error {
	for _, message := range messages {
		r.store.seq++
		message.Seq = r.store.seq
	}
	if r.store.inTx {
		r.store.pending = append(r.store.pending, messages...)
	} else {
		r.store.messages = append(r.store.messages, messages...)
	}
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TherapyMessage, error) {
	var out []*entity.TherapyMessage
	for _, message := range r.store.messages {
		if messageMatches(message, specs) {
			out = append(out, message)
		}
	}

	// The database gives no ordering guarantee for rows with equal sort keys.
	// Start from reversed insertion order so a missing tiebreaker in the
	// query surfaces as a wrong result instead of passing by accident.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sortMessages(out, specs)

	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok && p.Limit > 0 && len(out) > p.Limit {
			out = out[:p.Limit]
		}
	}
	return out, nil
}

func sortMessages(messages []*entity.TherapyMessage, specs []specification.Specification) {
	var orders []specification.OrderBy
	for _, spec := range specs {
		if o, ok := spec.(specification.OrderBy); ok {
			orders = append(orders, o)
		}
	}
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(messages, func(i, j int) bool {
		for _, o := range orders {
			var less, greater bool
			switch o.Field {
			case "created_at":
				less = messages[i].CreatedAt.Before(messages[j].CreatedAt)
				greater = messages[i].CreatedAt.After(messages[j].CreatedAt)
			case "seq":
				less = messages[i].Seq < messages[j].Seq
				greater = messages[i].Seq > messages[j].Seq
			}
			if less {
				return !o.Desc
			}
			if greater {
				return o.Desc
			}
		}
		return false
	})
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	found, _ := r.FindAll(ctx, specs...)
	return int64(len(found)), nil
}

func messageMatches(message *entity.TherapyMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		if s, ok := spec.(specification.BySessionID); ok && message.SessionId != s.SessionID {
			return false
		}
	}
	return true
}

// ---- pipeline fakes ----

type fakeAnalyzer struct {
	result entity.Analysis
	calls  int
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, userMessage string, history []llm.Message) entity.Analysis {
	a.calls++
	return a.result
}

type fakeGenerator struct {
	reply       string
	err         error
	calls       int
	gotHistory  []llm.Message
	gotAnalysis entity.Analysis
}

func (g *fakeGenerator) Generate(ctx context.Context, userMessage string, history []llm.Message, analysis entity.Analysis) (string, error) {
	g.calls++
	g.gotHistory = history
	g.gotAnalysis = analysis
	return g.reply, g.err
}

type fakeHistoryLoader struct {
	window []llm.Message
	err    error
}

func (l *fakeHistoryLoader) LoadWindow(ctx context.Context, sessionId uuid.UUID) ([]llm.Message, error) {
	return l.window, l.err
}

type fakeEventPublisher struct {
	published []events.Event
	err       error
}

func (p *fakeEventPublisher) Publish(ctx context.Context, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func (p *fakeEventPublisher) eventTypes() []string {
	types := make([]string, 0, len(p.published))
	for _, event := range p.published {
		types = append(types, event.EventType())
	}
	return types
}

type fakeActivityPublisher struct {
	payloads []*dto.SessionActivityMessage
}

func (p *fakeActivityPublisher) PublishSessionActivity(payload *dto.SessionActivityMessage) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }

// ---- fixture ----

type fixture struct {
	store     *fakeStore
	analyzer  *fakeAnalyzer
	generator *fakeGenerator
	loader    *fakeHistoryLoader
	bus       *fakeEventPublisher
	activity  *fakeActivityPublisher
	service   ITherapyService

	userId  uuid.UUID
	session *entity.TherapySession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := &fakeStore{}
	userId := uuid.New()
	store.users = append(store.users, &entity.User{
		Id:     userId,
		Email:  "test@example.com",
		Status: entity.UserStatusActive,
	})

	session := &entity.TherapySession{
		Id:        uuid.New(),
		Token:     uuid.NewString(),
		UserId:    userId,
		Status:    entity.SessionStatusActive,
		StartedAt: time.Now().Add(-time.Hour),
	}
	store.sessions = append(store.sessions, session)

	f := &fixture{
		store:     store,
		analyzer:  &fakeAnalyzer{result: entity.DefaultAnalysis()},
		generator: &fakeGenerator{reply: "That sounds really difficult."},
		loader:    &fakeHistoryLoader{},
		bus:       &fakeEventPublisher{},
		activity:  &fakeActivityPublisher{},
		userId:    userId,
		session:   session,
	}

	f.service = NewTherapyService(
		&fakeFactory{store: store},
		f.analyzer,
		f.generator,
		f.loader,
		f.bus,
		f.activity,
		testLogger{},
		constant.DefaultRiskAlertThreshold,
	)

	return f
}

// ---- tests ----

func TestSendMessagePersistsTurnPair(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "I had a rough week",
	})

	require.NoError(t, err)
	assert.Equal(t, "That sounds really difficult.", resp.Response)
	assert.Equal(t, entity.DefaultAnalysis(), resp.Analysis)

	require.Len(t, f.store.messages, 2)
	userTurn, assistantTurn := f.store.messages[0], f.store.messages[1]

	assert.Equal(t, constant.MessageRoleUser, userTurn.Role)
	assert.Equal(t, "I had a rough week", userTurn.Content)
	assert.Nil(t, userTurn.Metadata)

	assert.Equal(t, constant.MessageRoleAssistant, assistantTurn.Role)
	assert.Equal(t, "That sounds really difficult.", assistantTurn.Content)
	require.NotNil(t, assistantTurn.Metadata)
	assert.Equal(t, entity.DefaultAnalysis(), *assistantTurn.Metadata)

	assert.Equal(t, userTurn.CreatedAt, assistantTurn.CreatedAt)
	assert.True(t, f.store.committed)
	assert.False(t, f.store.rolledBack)
}

func TestSendMessageTouchesSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "hello",
	})

	require.NoError(t, err)
	require.NotNil(t, f.store.sessions[0].UpdatedAt)
}

func TestSendMessageRejectsBlankMessage(t *testing.T) {
	f := newFixture(t)

	for _, blank := range []string{"", "   ", "\n\t "} {
		_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
			Message: blank,
		})
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	assert.Zero(t, f.analyzer.calls)
	assert.Zero(t, f.generator.calls)
	assert.Empty(t, f.store.messages)
}

func TestSendMessageUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SendMessage(context.Background(), f.userId, uuid.NewString(), &dto.SendMessageRequest{
		Message: "hello",
	})

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, f.analyzer.calls)
}

func TestSendMessageForeignSessionLooksAbsent(t *testing.T) {
	f := newFixture(t)

	// A different authenticated user probing with a valid token gets the same
	// answer as a bad token.
	_, err := f.service.SendMessage(context.Background(), uuid.New(), f.session.Token, &dto.SendMessageRequest{
		Message: "hello",
	})

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, f.store.messages)
}

func TestSendMessageClosedSession(t *testing.T) {
	f := newFixture(t)
	f.session.Status = entity.SessionStatusClosed

	_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "hello",
	})

	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Zero(t, f.generator.calls)
}

func TestSendMessageReplyFailureLeavesNothingPersisted(t *testing.T) {
	f := newFixture(t)
	f.generator.err = errors.New("model timeout")

	_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "hello",
	})

	assert.ErrorIs(t, err, ErrReplyGeneration)
	assert.Empty(t, f.store.messages)
	assert.False(t, f.store.committed)
	assert.Nil(t, f.store.sessions[0].UpdatedAt)
	assert.Empty(t, f.activity.payloads)
}

func TestSendMessagePassesHistoryAndAnalysisToGenerator(t *testing.T) {
	f := newFixture(t)
	f.loader.window = []llm.Message{
		{Role: "user", Content: "earlier message"},
		{Role: "assistant", Content: "earlier reply"},
	}
	f.analyzer.result = entity.Analysis{
		EmotionalState:      "anxious",
		Themes:              []string{"work"},
		RiskLevel:           2,
		RecommendedApproach: "grounding",
		ProgressIndicators:  []string{},
	}

	_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "still worried",
	})

	require.NoError(t, err)
	assert.Equal(t, f.loader.window, f.generator.gotHistory)
	assert.Equal(t, f.analyzer.result, f.generator.gotAnalysis)
}

func TestSendMessageHistoryFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.loader.err = errors.New("db hiccup")

	resp, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "hello",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Response)
	assert.Nil(t, f.generator.gotHistory)
}

func TestSendMessageHighRiskPublishesEvent(t *testing.T) {
	f := newFixture(t)
	f.analyzer.result = entity.Analysis{
		EmotionalState:      "despairing",
		Themes:              []string{"hopelessness"},
		RiskLevel:           7,
		RecommendedApproach: "crisis support",
		ProgressIndicators:  []string{},
	}

	_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "I can't see a way forward",
	})

	require.NoError(t, err)
	assert.Contains(t, f.bus.eventTypes(), events.TypeHighRiskDetected)
	// The turn is still persisted; the alert never blocks the reply.
	assert.Len(t, f.store.messages, 2)
}

func TestSendMessageLowRiskSkipsAlert(t *testing.T) {
	f := newFixture(t)
	f.analyzer.result.RiskLevel = constant.DefaultRiskAlertThreshold

	_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "hello",
	})

	require.NoError(t, err)
	assert.NotContains(t, f.bus.eventTypes(), events.TypeHighRiskDetected)
}

func TestSendMessageEventBusFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.bus.err = errors.New("nats down")

	_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "hello",
	})

	require.NoError(t, err)
	assert.Len(t, f.store.messages, 2)
}

func TestSendMessagePublishesActivity(t *testing.T) {
	f := newFixture(t)
	f.analyzer.result.RiskLevel = 3

	_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
		Message: "hello",
	})

	require.NoError(t, err)
	require.Len(t, f.activity.payloads, 1)
	assert.Equal(t, f.session.Token, f.activity.payloads[0].SessionId)
	assert.Equal(t, f.userId.String(), f.activity.payloads[0].UserId)
	assert.Equal(t, 3, f.activity.payloads[0].RiskLevel)
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.CreateSession(context.Background(), f.userId)

	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionId)
	assert.Equal(t, string(entity.SessionStatusActive), resp.Status)
	assert.Len(t, f.store.sessions, 2)
	assert.Contains(t, f.bus.eventTypes(), events.TypeSessionCreated)
}

func TestCreateSessionUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateSession(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Len(t, f.store.sessions, 1)
}

func TestGetAllSessionsSummaries(t *testing.T) {
	f := newFixture(t)
	f.store.messages = append(f.store.messages,
		&entity.TherapyMessage{Id: uuid.New(), SessionId: f.session.Id, Seq: 1, Role: constant.MessageRoleUser, Content: "first"},
		&entity.TherapyMessage{Id: uuid.New(), SessionId: f.session.Id, Seq: 2, Role: constant.MessageRoleAssistant, Content: "second"},
	)

	summaries, err := f.service.GetAllSessions(context.Background(), f.userId)

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, f.session.Token, summaries[0].SessionId)
	assert.Equal(t, int64(2), summaries[0].MessageCount)
	assert.NotEmpty(t, summaries[0].LastMessage)
}

func TestGetSessionIncludesMessages(t *testing.T) {
	f := newFixture(t)
	analysis := entity.DefaultAnalysis()
	f.store.messages = append(f.store.messages,
		&entity.TherapyMessage{Id: uuid.New(), SessionId: f.session.Id, Seq: 1, Role: constant.MessageRoleUser, Content: "hi"},
		&entity.TherapyMessage{Id: uuid.New(), SessionId: f.session.Id, Seq: 2, Role: constant.MessageRoleAssistant, Content: "hello", Metadata: &analysis},
	)

	resp, err := f.service.GetSession(context.Background(), f.userId, f.session.Token)

	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Nil(t, resp.Messages[0].Metadata)
	assert.NotNil(t, resp.Messages[1].Metadata)
}

func TestHistoryKeepsPairOrderForEqualTimestamps(t *testing.T) {
	f := newFixture(t)

	// Both turns of a pair share one timestamp, so created_at alone cannot
	// order them; reads must fall back to the insertion sequence.
	for _, text := range []string{"first message", "second message"} {
		_, err := f.service.SendMessage(context.Background(), f.userId, f.session.Token, &dto.SendMessageRequest{
			Message: text,
		})
		require.NoError(t, err)
	}

	history, err := f.service.GetHistory(context.Background(), f.userId, f.session.Token)
	require.NoError(t, err)
	require.Len(t, history, 4)

	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, constant.MessageRoleUser, history[i].Role)
		assert.Equal(t, constant.MessageRoleAssistant, history[i+1].Role)
		assert.Equal(t, history[i].Timestamp, history[i+1].Timestamp)
	}
	assert.Equal(t, "first message", history[0].Content)
	assert.Equal(t, "second message", history[2].Content)
}

func TestGetHistoryUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetHistory(context.Background(), f.userId, "no-such-token")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCloseSession(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.CloseSession(context.Background(), f.userId, f.session.Token))
	assert.Equal(t, entity.SessionStatusClosed, f.store.sessions[0].Status)

	// Closing again is a no-op, not an error.
	require.NoError(t, f.service.CloseSession(context.Background(), f.userId, f.session.Token))
}

func TestCloseSessionForeignOwner(t *testing.T) {
	f := newFixture(t)

	err := f.service.CloseSession(context.Background(), uuid.New(), f.session.Token)

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, entity.SessionStatusActive, f.store.sessions[0].Status)
}
