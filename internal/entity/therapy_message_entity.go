package entity

import (
	"time"

	"github.com/google/uuid"
)

// TherapyMessage is one turn in a session. Metadata is non-nil only for
// assistant turns, carrying the analysis produced for that turn.
type TherapyMessage struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Seq       int64 // storage-assigned insertion order, tiebreaker for equal timestamps
	Role      string
	Content   string
	Metadata  *Analysis
	CreatedAt time.Time
}

// Analysis is the structured, model-derived assessment of a single user
// message. It is always well-formed: when the analysis call or parse fails,
// DefaultAnalysis is substituted instead of a nil value.
type Analysis struct {
	EmotionalState      string   `json:"emotionalState"`
	Themes              []string `json:"themes"`
	RiskLevel           int      `json:"riskLevel"`
	RecommendedApproach string   `json:"recommendedApproach"`
	ProgressIndicators  []string `json:"progressIndicators"`
}

// DefaultAnalysis is the neutral fallback used when the analysis stage
// degrades. Never return a nil analysis to callers.
func DefaultAnalysis() Analysis {
	return Analysis{
		EmotionalState:      "neutral",
		Themes:              []string{},
		RiskLevel:           0,
		RecommendedApproach: "supportive listening",
		ProgressIndicators:  []string{},
	}
}
