package constant

// Diagnostic stages, in assessment order. The order is fixed: a session walks
// forward through these five dimensions and never moves back.
const (
	StageStrategy     = "strategy"
	StageStructure    = "structure"
	StagePerformance  = "performance"
	StageCompensation = "compensation"
	StageTalent       = "talent"
)

// StageOrder is the canonical progression used by stage advancement.
var StageOrder = []string{
	StageStrategy,
	StageStructure,
	StagePerformance,
	StageCompensation,
	StageTalent,
}

// IsValidStage reports whether s is one of the five known stages.
func IsValidStage(s string) bool {
	for _, stage := range StageOrder {
		if stage == s {
			return true
		}
	}
	return false
}

// NextStage returns the stage following s, or "" if s is terminal or unknown.
func NextStage(s string) string {
	for i, stage := range StageOrder {
		if stage == s && i+1 < len(StageOrder) {
			return StageOrder[i+1]
		}
	}
	return ""
}

// StageLabels maps stage keys to the display names used inside prompts.
var StageLabels = map[string]string{
	StageStrategy:     "Strategy",
	StageStructure:    "Organizational Structure",
	StagePerformance:  "Performance Management",
	StageCompensation: "Compensation & Incentives",
	StageTalent:       "Talent Development",
}

// Session lifecycle statuses
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusArchived  = "archived"
)

// Chat roles
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"
)

// Topic name for the in-process extraction trigger bus.
const ExtractInsightsTopic = "EXTRACT_DIMENSION_INSIGHTS"

// NATS subject for successful extraction events.
const InsightExtractedSubject = "diagnosis.insight.extracted"
