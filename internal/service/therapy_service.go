package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-therapy-be/internal/constant"
	"ai-therapy-be/internal/dto"
	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/pkg/logger"
	"ai-therapy-be/internal/repository/specification"
	"ai-therapy-be/internal/repository/unitofwork"
	"ai-therapy-be/pkg/events"
	"ai-therapy-be/pkg/llm"

	"github.com/google/uuid"
)

// MessageAnalyzer runs the assessment stage. Implementations never fail
// outward; they degrade to the neutral default analysis.
type MessageAnalyzer interface {
	Analyze(ctx context.Context, userMessage string, history []llm.Message) entity.Analysis
}

// ReplyGenerator runs the reply stage. A failure here aborts the request.
type ReplyGenerator interface {
	Generate(ctx context.Context, userMessage string, history []llm.Message, analysis entity.Analysis) (string, error)
}

// HistoryLoader assembles the bounded context window for a session.
type HistoryLoader interface {
	LoadWindow(ctx context.Context, sessionId uuid.UUID) ([]llm.Message, error)
}

// EventPublisher sends domain events to the bus. Always best-effort from the
// pipeline's point of view.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ITherapyService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionSummaryResponse, error)
	GetSession(ctx context.Context, userId uuid.UUID, sessionToken string) (*dto.GetSessionResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionToken string) ([]*dto.MessageResponse, error)
	SendMessage(ctx context.Context, userId uuid.UUID, sessionToken string, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	CloseSession(ctx context.Context, userId uuid.UUID, sessionToken string) error
}

type therapyService struct {
	uowFactory        unitofwork.RepositoryFactory
	analyzer          MessageAnalyzer
	generator         ReplyGenerator
	historyLoader     HistoryLoader
	eventPublisher    EventPublisher
	activityPublisher IPublisherService
	logger            logger.ILogger
	riskThreshold     int
}

func NewTherapyService(
	uowFactory unitofwork.RepositoryFactory,
	analyzer MessageAnalyzer,
	generator ReplyGenerator,
	historyLoader HistoryLoader,
	eventPublisher EventPublisher,
	activityPublisher IPublisherService,
	log logger.ILogger,
	riskThreshold int,
) ITherapyService {
	return &therapyService{
		uowFactory:        uowFactory,
		analyzer:          analyzer,
		generator:         generator,
		historyLoader:     historyLoader,
		eventPublisher:    eventPublisher,
		activityPublisher: activityPublisher,
		logger:            log,
		riskThreshold:     riskThreshold,
	}
}

func (s *therapyService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	session := &entity.TherapySession{
		Id:        uuid.New(),
		Token:     uuid.NewString(),
		UserId:    userId,
		Status:    entity.SessionStatusActive,
		StartedAt: time.Now(),
	}

	if err := uow.TherapySessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.publishEvent(ctx, events.NewSessionCreated(userId.String(), session.Token))

	return &dto.CreateSessionResponse{
		SessionId: session.Token,
		StartTime: session.StartedAt,
		Status:    string(session.Status),
	}, nil
}

func (s *therapyService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.TherapySessionRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "COALESCE(updated_at, started_at)", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	result := make([]*dto.SessionSummaryResponse, 0, len(sessions))
	for _, session := range sessions {
		summary := &dto.SessionSummaryResponse{
			SessionId: session.Token,
			StartTime: session.StartedAt,
			Status:    string(session.Status),
		}

		count, err := uow.TherapyMessageRepository().Count(ctx, specification.BySessionID{SessionID: session.Id})
		if err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}
		summary.MessageCount = count

		if count > 0 {
			last, err := uow.TherapyMessageRepository().FindAll(ctx,
				specification.BySessionID{SessionID: session.Id},
				specification.OrderBy{Field: "created_at", Desc: true},
				specification.OrderBy{Field: "seq", Desc: true},
				specification.Pagination{Limit: 1},
			)
			if err != nil {
				return nil, fmt.Errorf("failed to load last message: %w", err)
			}
			if len(last) > 0 {
				summary.LastMessage = last[0].Content
			}
		}

		result = append(result, summary)
	}

	return result, nil
}

func (s *therapyService) GetSession(ctx context.Context, userId uuid.UUID, sessionToken string) (*dto.GetSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionToken)
	if err != nil {
		return nil, err
	}

	messages, err := uow.TherapyMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	return &dto.GetSessionResponse{
		SessionId: session.Token,
		StartTime: session.StartedAt,
		Status:    string(session.Status),
		Messages:  toMessageResponses(messages),
	}, nil
}

func (s *therapyService) GetHistory(ctx context.Context, userId uuid.UUID, sessionToken string) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionToken)
	if err != nil {
		return nil, err
	}

	messages, err := uow.TherapyMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	return toMessageResponses(messages), nil
}

// SendMessage runs the full per-message pipeline: load session, assemble
// history, analyze, generate, persist the turn pair atomically, then fire the
// post-persist hooks.
func (s *therapyService) SendMessage(ctx context.Context, userId uuid.UUID, sessionToken string, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	userMessage := strings.TrimSpace(request.Message)
	if userMessage == "" {
		return nil, ErrEmptyMessage
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionToken)
	if err != nil {
		return nil, err
	}
	if session.Status == entity.SessionStatusClosed {
		return nil, ErrSessionClosed
	}

	s.publishEvent(ctx, events.NewMessageReceived(userId.String(), session.Token))

	historyWindow, err := s.historyLoader.LoadWindow(ctx, session.Id)
	if err != nil {
		s.logger.Warn("TherapyService", "Failed to load history window, proceeding without context", map[string]interface{}{
			"session_id": session.Token,
			"error":      err.Error(),
		})
		historyWindow = nil
	}

	analysisResult := s.analyzer.Analyze(ctx, userMessage, historyWindow)

	replyText, err := s.generator.Generate(ctx, userMessage, historyWindow, analysisResult)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReplyGeneration, err)
	}

	now := time.Now()
	turnPair := []*entity.TherapyMessage{
		{
			Id:        uuid.New(),
			SessionId: session.Id,
			Role:      constant.MessageRoleUser,
			Content:   userMessage,
			CreatedAt: now,
		},
		{
			Id:        uuid.New(),
			SessionId: session.Id,
			Role:      constant.MessageRoleAssistant,
			Content:   replyText,
			Metadata:  &analysisResult,
			CreatedAt: now,
		},
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TherapyMessageRepository().CreateBulk(ctx, turnPair); err != nil {
		return nil, fmt.Errorf("failed to persist messages: %w", err)
	}

	session.UpdatedAt = &now
	if err := uow.TherapySessionRepository().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.handleRisk(ctx, userId, session.Token, analysisResult)
	s.publishActivity(session.Token, userId, analysisResult.RiskLevel)

	return &dto.SendMessageResponse{
		Response: replyText,
		Analysis: analysisResult,
	}, nil
}

func (s *therapyService) CloseSession(ctx context.Context, userId uuid.UUID, sessionToken string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionToken)
	if err != nil {
		return err
	}
	if session.Status == entity.SessionStatusClosed {
		return nil
	}

	now := time.Now()
	session.Status = entity.SessionStatusClosed
	session.UpdatedAt = &now

	if err := uow.TherapySessionRepository().Update(ctx, session); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	return nil
}

// findOwnedSession resolves a session by token scoped to its owner in a single
// query, so a wrong token and someone else's token both come back as not found.
func (s *therapyService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionToken string) (*entity.TherapySession, error) {
	session, err := uow.TherapySessionRepository().FindOne(ctx,
		specification.ByToken{Token: sessionToken},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// handleRisk fires the high-risk hook when the analysis crosses the threshold.
// Logging and the event are both best-effort; the user already has their reply.
func (s *therapyService) handleRisk(ctx context.Context, userId uuid.UUID, sessionToken string, analysisResult entity.Analysis) {
	if analysisResult.RiskLevel <= s.riskThreshold {
		return
	}

	s.logger.Warn("TherapyService", "High-risk message detected", map[string]interface{}{
		"session_id": sessionToken,
		"risk_level": analysisResult.RiskLevel,
	})

	s.publishEvent(ctx, events.NewHighRiskDetected(userId.String(), sessionToken, analysisResult.RiskLevel))
}

func (s *therapyService) publishEvent(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("TherapyService", "Failed to publish event", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}

func (s *therapyService) publishActivity(sessionToken string, userId uuid.UUID, riskLevel int) {
	if s.activityPublisher == nil {
		return
	}
	err := s.activityPublisher.PublishSessionActivity(&dto.SessionActivityMessage{
		SessionId: sessionToken,
		UserId:    userId.String(),
		RiskLevel: riskLevel,
	})
	if err != nil {
		s.logger.Warn("TherapyService", "Failed to publish session activity", map[string]interface{}{
			"session_id": sessionToken,
			"error":      err.Error(),
		})
	}
}

func toMessageResponses(messages []*entity.TherapyMessage) []*dto.MessageResponse {
	result := make([]*dto.MessageResponse, 0, len(messages))
	for _, message := range messages {
		result = append(result, &dto.MessageResponse{
			Role:      message.Role,
			Content:   message.Content,
			Timestamp: message.CreatedAt,
			Metadata:  message.Metadata,
		})
	}
	return result
}
