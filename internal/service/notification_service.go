package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/pkg/logger"
	"org-diagnostics-be/pkg/events"
	pktNats "org-diagnostics-be/pkg/nats"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification dto.InsightNotification)
}

type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe(constant.InsightExtractedSubject, "insight-notifier", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started", map[string]interface{}{
		"subject": constant.InsightExtractedSubject,
	})
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	userIdStr, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		s.logger.Warn("NotificationService", "Event without valid user_id, dropping", map[string]interface{}{
			"subject": event.EventType(),
		})
		return nil
	}

	sessionIdStr, _ := payload["session_id"].(string)
	sessionId, err := uuid.Parse(sessionIdStr)
	if err != nil {
		s.logger.Warn("NotificationService", "Event without valid session_id, dropping", nil)
		return nil
	}

	stage, _ := payload["stage"].(string)
	score, _ := payload["score"].(float64)
	extractedAt, _ := payload["timestamp"].(string)
	if extractedAt == "" {
		extractedAt = time.Now().Format(time.RFC3339)
	}

	s.delivery.Send(userId, dto.InsightNotification{
		SessionId:   sessionId,
		Stage:       stage,
		Score:       score,
		ExtractedAt: extractedAt,
	})

	return nil
}
