package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TherapyMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	// Seq is a bigserial insertion counter. Both turns of a pair share the
	// same CreatedAt, so ordering always uses (created_at, seq) to keep the
	// user turn ahead of its assistant turn.
	Seq       int64          `gorm:"autoIncrement;not null"`
	Role      string         `gorm:"type:varchar(20);not null"`
	Content   string         `gorm:"type:text;not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"` // Analysis for assistant turns, NULL for user turns
	CreatedAt time.Time      `gorm:"not null;index"`
}

func (TherapyMessage) TableName() string {
	return "therapy_messages"
}
