package model

import (
	"time"

	"github.com/google/uuid"
)

type TherapySession struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null"` // Opaque client-facing identifier
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`              // User ownership for data isolation
	Status    string    `gorm:"type:varchar(20);not null;default:'active'"`
	StartedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TherapySession) TableName() string {
	return "therapy_sessions"
}
