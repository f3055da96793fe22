package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByToken filters sessions by their opaque client-facing token.
type ByToken struct {
	Token string
}

func (s ByToken) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("token = ?", s.Token)
}

// OwnedBy filters by the owning user. Combined with ByToken in a single
// query so a missing session and someone else's session are indistinguishable
// to the caller.
type OwnedBy struct {
	UserID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// BySessionID filters messages by their parent session row.
type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}
