package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatLog struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string
	Content   string
	Metadata  map[string]interface{}
	CreatedAt time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
