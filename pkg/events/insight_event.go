package events

import "time"

const TypeInsightExtracted = "insight.extracted"

// InsightExtractedEvent announces that a dimension insight was extracted and
// persisted for a session. Consumed by the notification layer.
type InsightExtractedEvent struct {
	SessionId  string
	UserId     string
	Stage      string
	Score      float64
	OccurredAt time.Time
}

func (e InsightExtractedEvent) EventType() string {
	return TypeInsightExtracted
}

func (e InsightExtractedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id": e.SessionId,
		"user_id":    e.UserId,
		"stage":      e.Stage,
		"score":      e.Score,
		"timestamp":  e.OccurredAt.Format(time.RFC3339),
	}
}

func (e InsightExtractedEvent) Timestamp() time.Time {
	return e.OccurredAt
}
