package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// TherapySession is one ongoing therapy conversation. Token is the opaque
// identifier handed to clients; Id is the storage-internal row identifier.
type TherapySession struct {
	Id        uuid.UUID
	Token     string
	UserId    uuid.UUID
	Status    SessionStatus
	StartedAt time.Time
	UpdatedAt *time.Time
}
