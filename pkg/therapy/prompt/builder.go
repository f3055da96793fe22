package prompt

import (
	"fmt"
	"strings"

	"ai-therapy-be/internal/entity"
)

// Builder constructs the two prompts used by the message pipeline. It is a
// pure component: no I/O, no state beyond its inputs.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// BuildAnalysisPrompt instructs the model to assess the user message and
// return ONLY a JSON object with the five analysis fields.
func (b *Builder) BuildAnalysisPrompt(userMessage string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Assess the user's message below from a therapeutic standpoint.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Return ONLY a JSON object, no prose, no markdown fencing, with exactly these fields:\n")
	prompt.WriteString(`{"emotionalState": "<short label>", "themes": ["<theme>", ...], "riskLevel": <0-10>, "recommendedApproach": "<short label>", "progressIndicators": ["<observation>", ...]}`)
	prompt.WriteString("\n")
	prompt.WriteString("riskLevel: 0 means no self-harm risk, 10 means immediate danger.\n")
	prompt.WriteString("</output_format>\n\n")

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(userMessage)
	prompt.WriteString("\n</user_message>")

	return prompt.String()
}

// BuildReplyPrompt wraps the user message together with the computed analysis
// so the reply model can tailor tone and, when risk is present, safety
// guidance toward emergency services or a trusted person.
func (b *Builder) BuildReplyPrompt(userMessage string, analysis entity.Analysis) string {
	var prompt strings.Builder

	prompt.WriteString("<assessment>\n")
	fmt.Fprintf(&prompt, "Emotional state: %s\n", analysis.EmotionalState)
	if len(analysis.Themes) > 0 {
		fmt.Fprintf(&prompt, "Themes: %s\n", strings.Join(analysis.Themes, ", "))
	}
	fmt.Fprintf(&prompt, "Risk level: %d\n", analysis.RiskLevel)
	fmt.Fprintf(&prompt, "Recommended approach: %s\n", analysis.RecommendedApproach)
	prompt.WriteString("</assessment>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("Respond to the user supportively and professionally, using the recommended approach.\n")
	prompt.WriteString("If the message suggests any risk of self-harm, gently but clearly encourage contacting local emergency services or a trusted person right away.\n")
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(userMessage)
	prompt.WriteString("\n</user_message>")

	return prompt.String()
}
