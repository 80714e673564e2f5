package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeChunk is one embedded passage of the consulting knowledge base.
// Rows are produced by the offline ingestion job and consumed read-only by
// the retriever.
type KnowledgeChunk struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content   string          `gorm:"type:text;not null"`
	Category  string          `gorm:"type:text;not null;index"` // one of the five stages
	Source    string          `gorm:"type:text;not null"`
	Embedding pgvector.Vector `gorm:"type:vector(1536)"` // text-embedding-3-small dimensionality
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}
