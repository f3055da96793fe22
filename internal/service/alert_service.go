package service

import (
	"context"

	"ai-therapy-be/internal/pkg/logger"
	"ai-therapy-be/internal/pkg/mailer"
	"ai-therapy-be/pkg/events"
	pkgnats "ai-therapy-be/pkg/nats"
)

type IAlertService interface {
	Start() error
}

// alertService watches the event bus for high-risk detections. Every event is
// logged; the supervisor email is sent only when a recipient is configured.
type alertService struct {
	subscriber      *pkgnats.Subscriber
	emailService    mailer.IEmailService
	supervisorEmail string
	logger          logger.ILogger
}

func NewAlertService(subscriber *pkgnats.Subscriber, emailService mailer.IEmailService, supervisorEmail string, log logger.ILogger) IAlertService {
	return &alertService{
		subscriber:      subscriber,
		emailService:    emailService,
		supervisorEmail: supervisorEmail,
		logger:          log,
	}
}

func (s *alertService) Start() error {
	subject := "events." + events.TypeHighRiskDetected
	return s.subscriber.Subscribe(subject, "risk-alert-worker", s.handle)
}

func (s *alertService) handle(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	sessionToken, _ := payload["session_id"].(string)
	riskLevel := 0
	if v, ok := payload["risk_level"].(float64); ok {
		riskLevel = int(v)
	}

	s.logger.Warn("AlertService", "High-risk event received", map[string]interface{}{
		"session_id": sessionToken,
		"risk_level": riskLevel,
	})

	if s.emailService == nil || s.supervisorEmail == "" {
		return nil
	}

	if err := s.emailService.SendHighRiskAlert(s.supervisorEmail, sessionToken, riskLevel); err != nil {
		// Ack anyway: a failed email must not block the consumer or redeliver
		// the same alert forever.
		s.logger.Error("AlertService", "Failed to send supervisor alert", map[string]interface{}{
			"session_id": sessionToken,
			"error":      err.Error(),
		})
	}

	return nil
}
