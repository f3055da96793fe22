package implementation

import (
	"context"
	"errors"

	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/mapper"
	"ai-therapy-be/internal/model"
	"ai-therapy-be/internal/repository/contract"
	"ai-therapy-be/internal/repository/specification"

	"gorm.io/gorm"
)

type TherapySessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TherapyMapper
}

func NewTherapySessionRepository(db *gorm.DB) contract.TherapySessionRepository {
	return &TherapySessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTherapyMapper(),
	}
}

func (r *TherapySessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TherapySessionRepositoryImpl) Create(ctx context.Context, session *entity.TherapySession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *TherapySessionRepositoryImpl) Update(ctx context.Context, session *entity.TherapySession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *TherapySessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TherapySession, error) {
	var m model.TherapySession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *TherapySessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TherapySession, error) {
	var models []*model.TherapySession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TherapySession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *TherapySessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TherapySession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
