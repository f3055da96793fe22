package service

import (
	"encoding/json"
	"fmt"

	"ai-therapy-be/internal/dto"
	"ai-therapy-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// SessionActivityTopic is the in-process topic carrying one message per
// processed therapy turn.
const SessionActivityTopic = "session.activity"

type IPublisherService interface {
	PublishSessionActivity(payload *dto.SessionActivityMessage) error
}

type publisherService struct {
	publisher message.Publisher
	logger    logger.ILogger
}

func NewPublisherService(publisher message.Publisher, log logger.ILogger) IPublisherService {
	return &publisherService{
		publisher: publisher,
		logger:    log,
	}
}

func (s *publisherService) PublishSessionActivity(payload *dto.SessionActivityMessage) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal activity payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := s.publisher.Publish(SessionActivityTopic, msg); err != nil {
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	return nil
}
