package dto

import (
	"time"

	"github.com/google/uuid"
)

type StreamChatRequest struct {
	SessionId   uuid.UUID `json:"session_id" validate:"required"`
	Message     string    `json:"message" validate:"required,min=1,max=8000"`
	Temperature *float64  `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// StreamChatResult summarizes a finished turn, returned to the controller
// after the last fragment has been relayed.
type StreamChatResult struct {
	SessionId        uuid.UUID `json:"session_id"`
	Stage            string    `json:"stage"`
	UserMessageId    uuid.UUID `json:"user_message_id"`
	ReplyMessageId   uuid.UUID `json:"reply_message_id"`
	ContextRetrieved bool      `json:"context_retrieved"`
}

type ChatLogResponse struct {
	Id        uuid.UUID              `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type DeleteMessageRequest struct {
	MessageId uuid.UUID `json:"message_id" validate:"required"`
}
