package store

import "time"

// SessionState is the in-memory, per-session conversation state tracked across
// requests. It is advisory only: the persisted session record is the source of
// truth, this cache just gives the risk hook and activity consumer cheap
// access to recent context.
type SessionState struct {
	ID             string // session token
	UserID         string
	MessageCount   int
	LastRiskLevel  int
	LastActivityAt time.Time
}
