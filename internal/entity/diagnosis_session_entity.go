package entity

import (
	"time"

	"github.com/google/uuid"
)

// DimensionInsight is the structured extraction result for one stage.
type DimensionInsight struct {
	Score           float64  `json:"score"`
	Tags            []string `json:"tags"`
	KeyIssues       []string `json:"key_issues"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

type DiagnosisSession struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Status       string
	CurrentStage string

	// Insights holds the per-stage extraction slots, keyed by stage name.
	// A missing key means no successful extraction for that stage yet.
	Insights map[string]*DimensionInsight

	TotalScore    int
	SummaryReport *string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
