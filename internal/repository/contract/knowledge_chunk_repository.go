package contract

import (
	"context"

	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/repository/specification"
)

// ScoredKnowledgeChunk wraps a KnowledgeChunk with its query similarity.
type ScoredKnowledgeChunk struct {
	Chunk      *entity.KnowledgeChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type CategoryCount struct {
	Category   string
	ChunkCount int64
}

type KnowledgeChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MatchDocuments performs a vector similarity search, filtered by category
	// (empty = all) and minimum similarity, returning up to topK chunks ranked
	// by descending similarity. Ties are broken by insertion order.
	MatchDocuments(ctx context.Context, embedding []float32, category string, threshold float64, topK int) ([]*ScoredKnowledgeChunk, error)

	// StatsByCategory returns per-dimension chunk counts.
	StatsByCategory(ctx context.Context) ([]*CategoryCount, error)
}
