package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/pkg/apperror"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the extraction trigger topic. Extraction is
// fire-and-forget: failures are logged and the message acked either way, so
// a broken turn can never wedge the queue.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	extractionService IExtractionService
	extractionTimeout time.Duration
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	extractionService IExtractionService,
	extractionTimeout time.Duration,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		extractionService: extractionService,
		extractionTimeout: extractionTimeout,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.ExtractInsightsMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal extraction trigger: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Extracting insights for session %s stage %s", payload.SessionId, payload.Stage)

	// Detached from the request context: the HTTP turn that queued this is
	// already finished.
	ctx, cancel := context.WithTimeout(context.Background(), cs.extractionTimeout)
	defer cancel()

	if _, err := cs.extractionService.ExtractInsights(ctx, payload.SessionId, payload.Stage); err != nil {
		switch apperror.CodeOf(err) {
		case apperror.CodeInvalidExtraction:
			log.Printf("[WARN] Extraction output rejected for session %s stage %s: %v", payload.SessionId, payload.Stage, err)
		case apperror.CodeInvalidInput, apperror.CodeNotFound:
			log.Printf("[INFO] Extraction skipped for session %s stage %s: %v", payload.SessionId, payload.Stage, err)
		default:
			log.Printf("[ERROR] Extraction failed for session %s stage %s: %v", payload.SessionId, payload.Stage, err)
		}
		msg.Ack()
		return
	}

	log.Printf("[SUCCESS] Insights stored for session %s stage %s", payload.SessionId, payload.Stage)
	msg.Ack()
}
