package history

import (
	"context"

	"ai-therapy-be/internal/constant"
	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/repository/specification"
	"ai-therapy-be/internal/repository/unitofwork"
	"ai-therapy-be/pkg/llm"

	"github.com/google/uuid"
)

// Loader assembles the bounded history window passed to the LLM as context.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewLoader(uowFactory unitofwork.RepositoryFactory) *Loader {
	return &Loader{
		uowFactory: uowFactory,
	}
}

// LoadWindow returns the last HistoryWindowSize persisted messages of the
// session in conversation order, mapped to LLM messages. An empty window is
// valid for a fresh session.
func (l *Loader) LoadWindow(ctx context.Context, sessionId uuid.UUID) ([]llm.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	// Newest first + limit, then reverse back into conversation order. Seq
	// breaks ties between the two turns of a pair, which share a timestamp.
	messages, err := uow.TherapyMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "seq", Desc: true},
		specification.Pagination{Limit: constant.HistoryWindowSize},
	)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return ToLLMMessages(messages), nil
}

// Window returns the suffix of messages bounded to limit entries, preserving
// order. Exposed separately so the bound is testable without a store.
func Window(messages []*entity.TherapyMessage, limit int) []*entity.TherapyMessage {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}

// ToLLMMessages maps persisted turns to the provider-agnostic message format.
func ToLLMMessages(messages []*entity.TherapyMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		role := constant.MessageRoleUser
		if msg.Role == constant.MessageRoleAssistant {
			role = constant.MessageRoleAssistant
		}
		out = append(out, llm.Message{
			Role:    role,
			Content: msg.Content,
		})
	}
	return out
}
