package entity

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeChunk struct {
	Id        uuid.UUID
	Content   string
	Category  string
	Source    string
	Embedding []float32
	CreatedAt time.Time
}
