package contract

import (
	"context"

	"github.com/google/uuid"

	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/repository/specification"
)

type ChatLogRepository interface {
	Create(ctx context.Context, log *entity.ChatLog) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatLog, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
