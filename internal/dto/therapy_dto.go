package dto

import (
	"time"

	"ai-therapy-be/internal/entity"
)

type CreateSessionResponse struct {
	SessionId string    `json:"session_id"`
	StartTime time.Time `json:"start_time"`
	Status    string    `json:"status"`
}

type SessionSummaryResponse struct {
	SessionId    string    `json:"session_id"`
	StartTime    time.Time `json:"start_time"`
	Status       string    `json:"status"`
	LastMessage  string    `json:"last_message,omitempty"`
	MessageCount int64     `json:"message_count"`
}

type MessageResponse struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *entity.Analysis `json:"metadata,omitempty"`
}

type GetSessionResponse struct {
	SessionId string             `json:"session_id"`
	StartTime time.Time          `json:"start_time"`
	Status    string             `json:"status"`
	Messages  []*MessageResponse `json:"messages"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendMessageResponse struct {
	Response string          `json:"response"`
	Analysis entity.Analysis `json:"analysis"`
}

// SessionActivityMessage is the in-process pub/sub payload emitted once per
// processed message, consumed by the activity worker.
type SessionActivityMessage struct {
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	RiskLevel int    `json:"risk_level"`
}
