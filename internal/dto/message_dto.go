package dto

import "github.com/google/uuid"

// ExtractInsightsMessage is the payload published on the in-process bus when
// a finished conversation turn should trigger background extraction.
type ExtractInsightsMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	Stage     string    `json:"stage"`
}

// InsightNotification is pushed to connected clients when a dimension
// insight has been extracted and stored.
type InsightNotification struct {
	SessionId   uuid.UUID `json:"session_id"`
	Stage       string    `json:"stage"`
	Score       float64   `json:"score"`
	ExtractedAt string    `json:"extracted_at"`
}
