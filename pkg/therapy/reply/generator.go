package reply

import (
	"context"
	"fmt"
	"strings"

	"ai-therapy-be/internal/constant"
	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/pkg/logger"
	"ai-therapy-be/pkg/llm"
	"ai-therapy-be/pkg/therapy/prompt"
)

// Generator runs the reply stage of the pipeline. Unlike the analysis stage,
// a provider failure here is fatal to the request: there is no safe canned
// reply to substitute for a failed generation.
type Generator struct {
	provider llm.Provider
	builder  *prompt.Builder
	logger   logger.ILogger
}

func NewGenerator(provider llm.Provider, builder *prompt.Builder, log logger.ILogger) *Generator {
	return &Generator{
		provider: provider,
		builder:  builder,
		logger:   log,
	}
}

// Generate produces the therapeutic reply for one user message.
func (g *Generator) Generate(ctx context.Context, userMessage string, history []llm.Message, analysis entity.Analysis) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: constant.TherapistSystemPromptV1})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: g.builder.BuildReplyPrompt(userMessage, analysis),
	})

	response, err := g.provider.Chat(ctx, messages)
	if err != nil {
		g.logger.Error("ReplyGenerator", "Reply generation failed", map[string]interface{}{"error": err.Error()})
		return "", fmt.Errorf("reply generation: %w", err)
	}

	response = strings.TrimSpace(response)
	if response == "" {
		g.logger.Warn("ReplyGenerator", "Reply model returned empty text, using fallback sentence", nil)
		return constant.FallbackReply, nil
	}

	return response, nil
}
