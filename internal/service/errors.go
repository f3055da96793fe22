package service

import "errors"

// Caller-visible pipeline errors. Session absence and ownership mismatch
// share one error so callers cannot probe for other users' sessions.
var (
	ErrEmptyMessage       = errors.New("message must not be empty")
	ErrSessionNotFound    = errors.New("session not found or access denied")
	ErrSessionClosed      = errors.New("session is closed")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrReplyGeneration    = errors.New("failed to generate reply")
)
