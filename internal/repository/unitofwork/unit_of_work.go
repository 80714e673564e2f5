package unitofwork

import (
	"context"

	"org-diagnostics-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DiagnosisSessionRepository() contract.DiagnosisSessionRepository
	ChatLogRepository() contract.ChatLogRepository
	KnowledgeChunkRepository() contract.KnowledgeChunkRepository
}
