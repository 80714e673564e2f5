package dto

import (
	"time"

	"github.com/google/uuid"

	"org-diagnostics-be/internal/entity"
)

type CreateSessionResponse struct {
	Id           uuid.UUID `json:"id"`
	CurrentStage string    `json:"current_stage"`
	Status       string    `json:"status"`
}

type SessionSummaryResponse struct {
	Id           uuid.UUID  `json:"id"`
	Status       string     `json:"status"`
	CurrentStage string     `json:"current_stage"`
	TotalScore   int        `json:"total_score"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type SessionDetailResponse struct {
	Id            uuid.UUID                             `json:"id"`
	Status        string                                `json:"status"`
	CurrentStage  string                                `json:"current_stage"`
	Insights      map[string]*entity.DimensionInsight   `json:"insights"`
	TotalScore    int                                   `json:"total_score"`
	SummaryReport *string                               `json:"summary_report,omitempty"`
	CreatedAt     time.Time                             `json:"created_at"`
	Messages      []*ChatLogResponse                    `json:"messages"`
}

type AdvanceStageRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
}

type AdvanceStageResponse struct {
	SessionId     uuid.UUID `json:"session_id"`
	PreviousStage string    `json:"previous_stage"`
	NextStage     string    `json:"next_stage,omitempty"`
	Advanced      bool      `json:"advanced"`
}

type CompleteSessionRequest struct {
	SessionId     uuid.UUID `json:"session_id" validate:"required"`
	SummaryReport string    `json:"summary_report" validate:"required"`
}

type CompleteSessionResponse struct {
	SessionId  uuid.UUID `json:"session_id"`
	Status     string    `json:"status"`
	TotalScore int       `json:"total_score"`
}

type DeleteSessionRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
}

type ExtractionResponse struct {
	Success bool                     `json:"success"`
	Stage   string                   `json:"stage,omitempty"`
	Insight *entity.DimensionInsight `json:"insight,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

type KnowledgeStatsResponse struct {
	Category   string `json:"category"`
	ChunkCount int64  `json:"chunk_count"`
}
