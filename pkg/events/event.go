package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by publishers.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes emitted by the therapy pipeline.
const (
	TypeSessionCreated   = "SESSION_CREATED"
	TypeMessageReceived  = "THERAPY_MESSAGE_RECEIVED"
	TypeHighRiskDetected = "HIGH_RISK_DETECTED"
)

// NewSessionCreated builds the event published when a user opens a new session.
func NewSessionCreated(userID, sessionToken string) Event {
	return BaseEvent{
		Type: TypeSessionCreated,
		Data: map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionToken,
		},
		OccurredAt: time.Now(),
	}
}

// NewMessageReceived is emitted once per send-message request, right after the
// session has been loaded. Best-effort only.
func NewMessageReceived(userID, sessionToken string) Event {
	return BaseEvent{
		Type: TypeMessageReceived,
		Data: map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionToken,
		},
		OccurredAt: time.Now(),
	}
}

// NewHighRiskDetected is emitted when an analysis crosses the risk threshold.
// Consumers decide what (if anything) to do with it.
func NewHighRiskDetected(userID, sessionToken string, riskLevel int) Event {
	return BaseEvent{
		Type: TypeHighRiskDetected,
		Data: map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionToken,
			"risk_level": riskLevel,
		},
		OccurredAt: time.Now(),
	}
}
