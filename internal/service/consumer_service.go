package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-therapy-be/internal/dto"
	"ai-therapy-be/internal/pkg/logger"
	"ai-therapy-be/internal/repository/memory"
	"ai-therapy-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Start(ctx context.Context) error
}

// activityConsumerService keeps the in-memory session state current by
// consuming the activity topic. The state is advisory only; losing the
// process just resets the counters.
type activityConsumerService struct {
	subscriber message.Subscriber
	stateRepo  *memory.StateRepository
	logger     logger.ILogger
}

func NewActivityConsumerService(subscriber message.Subscriber, stateRepo *memory.StateRepository, log logger.ILogger) IConsumerService {
	return &activityConsumerService{
		subscriber: subscriber,
		stateRepo:  stateRepo,
		logger:     log,
	}
}

func (s *activityConsumerService) Start(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, SessionActivityTopic)
	if err != nil {
		return err
	}

	go s.process(messages)

	s.logger.Info("ActivityConsumer", "Listening for session activity", nil)
	return nil
}

func (s *activityConsumerService) process(messages <-chan *message.Message) {
	for msg := range messages {
		var payload dto.SessionActivityMessage
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.logger.Warn("ActivityConsumer", "Dropping malformed activity message", map[string]interface{}{"error": err.Error()})
			msg.Ack()
			continue
		}

		state, found := s.stateRepo.Get(payload.SessionId)
		if !found {
			state = &store.SessionState{
				ID:     payload.SessionId,
				UserID: payload.UserId,
			}
		}

		state.MessageCount++
		state.LastRiskLevel = payload.RiskLevel
		state.LastActivityAt = time.Now()
		s.stateRepo.Save(state)

		msg.Ack()
	}
}
