package contract

import (
	"context"

	"github.com/google/uuid"

	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/repository/specification"
)

type DiagnosisSessionRepository interface {
	Create(ctx context.Context, session *entity.DiagnosisSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiagnosisSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiagnosisSession, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateStage replaces current_stage only. Stage mutation is reserved for
	// the stage controller.
	UpdateStage(ctx context.Context, id uuid.UUID, stage string) error

	// UpdateInsight atomically replaces the single JSONB slot belonging to
	// stage. The stage-to-column mapping is a fixed table; unknown stages are
	// rejected rather than interpolated into a column name.
	UpdateInsight(ctx context.Context, id uuid.UUID, stage string, insight *entity.DimensionInsight) error

	// Complete marks the session completed with its aggregate score and report.
	Complete(ctx context.Context, id uuid.UUID, totalScore int, summaryReport string) error
}
