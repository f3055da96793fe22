package mapper

import (
	"encoding/json"
	"time"

	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/model"

	"gorm.io/datatypes"
)

type TherapyMapper struct{}

func NewTherapyMapper() *TherapyMapper {
	return &TherapyMapper{}
}

// Session Mappers

func (m *TherapyMapper) SessionToEntity(s *model.TherapySession) *entity.TherapySession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.TherapySession{
		Id:        s.Id,
		Token:     s.Token,
		UserId:    s.UserId,
		Status:    entity.SessionStatus(s.Status),
		StartedAt: s.StartedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *TherapyMapper) SessionToModel(s *entity.TherapySession) *model.TherapySession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.TherapySession{
		Id:        s.Id,
		Token:     s.Token,
		UserId:    s.UserId,
		Status:    string(s.Status),
		StartedAt: s.StartedAt,
		UpdatedAt: updatedAt,
	}
}

// Message Mappers

func (m *TherapyMapper) MessageToEntity(msg *model.TherapyMessage) *entity.TherapyMessage {
	if msg == nil {
		return nil
	}

	var metadata *entity.Analysis
	if len(msg.Metadata) > 0 {
		var a entity.Analysis
		// Metadata written by us is always a valid Analysis; tolerate legacy
		// rows by leaving metadata nil on decode failure.
		if err := json.Unmarshal(msg.Metadata, &a); err == nil {
			metadata = &a
		}
	}

	return &entity.TherapyMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Seq:       msg.Seq,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  metadata,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *TherapyMapper) MessageToModel(msg *entity.TherapyMessage) *model.TherapyMessage {
	if msg == nil {
		return nil
	}

	var metadata datatypes.JSON
	if msg.Metadata != nil {
		if raw, err := json.Marshal(msg.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	return &model.TherapyMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Seq:       msg.Seq,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  metadata,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *TherapyMapper) MessagesToEntities(models []*model.TherapyMessage) []*entity.TherapyMessage {
	entities := make([]*entity.TherapyMessage, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}
