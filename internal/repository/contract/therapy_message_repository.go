package contract

import (
	"context"

	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/repository/specification"
)

type TherapyMessageRepository interface {
	Create(ctx context.Context, message *entity.TherapyMessage) error
	CreateBulk(ctx context.Context, messages []*entity.TherapyMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TherapyMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
