package unitofwork

import (
	"context"

	"ai-therapy-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	TherapySessionRepository() contract.TherapySessionRepository
	TherapyMessageRepository() contract.TherapyMessageRepository
}
