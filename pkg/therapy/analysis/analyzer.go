package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/pkg/logger"
	"ai-therapy-be/pkg/llm"
	"ai-therapy-be/pkg/therapy/prompt"
)

const systemInstruction = "You are a clinical assessment engine. You respond with a single JSON object and nothing else: no explanations, no markdown."

// Analyzer runs the structured assessment stage of the pipeline. It never
// fails outward: a provider error or unparsable output degrades to the
// neutral default analysis so the reply stage can still run.
type Analyzer struct {
	provider llm.Provider
	builder  *prompt.Builder
	logger   logger.ILogger
}

func NewAnalyzer(provider llm.Provider, builder *prompt.Builder, log logger.ILogger) *Analyzer {
	return &Analyzer{
		provider: provider,
		builder:  builder,
		logger:   log,
	}
}

// Analyze assesses one user message given the recent history window.
func (a *Analyzer) Analyze(ctx context.Context, userMessage string, history []llm.Message) entity.Analysis {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemInstruction})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: a.builder.BuildAnalysisPrompt(userMessage),
	})

	raw, err := a.provider.Chat(ctx, messages, llm.WithTemperature(0.2))
	if err != nil {
		a.logger.Warn("Analyzer", "Analysis call failed, using default analysis", map[string]interface{}{"error": err.Error()})
		return entity.DefaultAnalysis()
	}

	parsed, err := Parse(raw)
	if err != nil {
		a.logger.Warn("Analyzer", "Analysis output unparsable, using default analysis", map[string]interface{}{"error": err.Error()})
		return entity.DefaultAnalysis()
	}

	return parsed
}

// rawAnalysis tolerates the loose numeric typing of model output (riskLevel
// may come back as a float).
type rawAnalysis struct {
	EmotionalState      string   `json:"emotionalState"`
	Themes              []string `json:"themes"`
	RiskLevel           float64  `json:"riskLevel"`
	RecommendedApproach string   `json:"recommendedApproach"`
	ProgressIndicators  []string `json:"progressIndicators"`
}

// Parse decodes model output into an Analysis, stripping any markdown code
// fences the model may have wrapped the JSON in. Missing fields fall back to
// the neutral defaults field by field.
func Parse(raw string) (entity.Analysis, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return entity.Analysis{}, fmt.Errorf("empty analysis output")
	}

	var decoded rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return entity.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}

	result := entity.DefaultAnalysis()
	if decoded.EmotionalState != "" {
		result.EmotionalState = decoded.EmotionalState
	}
	if decoded.Themes != nil {
		result.Themes = decoded.Themes
	}
	if decoded.RiskLevel > 0 {
		result.RiskLevel = int(decoded.RiskLevel)
	}
	if decoded.RecommendedApproach != "" {
		result.RecommendedApproach = decoded.RecommendedApproach
	}
	if decoded.ProgressIndicators != nil {
		result.ProgressIndicators = decoded.ProgressIndicators
	}

	return result, nil
}

// StripCodeFences removes a wrapping markdown code fence (``` or ```json)
// if present, returning the trimmed inner content.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" on the opening fence line
	if idx := strings.Index(s, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
