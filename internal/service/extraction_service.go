package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/pkg/apperror"
	"org-diagnostics-be/internal/pkg/logger"
	"org-diagnostics-be/internal/repository/specification"
	"org-diagnostics-be/internal/repository/unitofwork"
	"org-diagnostics-be/pkg/events"
	"org-diagnostics-be/pkg/llm"
	pktNats "org-diagnostics-be/pkg/nats"
	"org-diagnostics-be/pkg/rag/insight"
	"org-diagnostics-be/pkg/rag/prompt"
)

type IExtractionService interface {
	// ExtractInsights distills a session's transcript into the structured
	// slot for stage. Concurrent requests for the same session and stage
	// collapse into one model call.
	ExtractInsights(ctx context.Context, sessionId uuid.UUID, stage string) (*dto.ExtractionResponse, error)

	// TriggerExtraction is the user-facing synchronous variant. It verifies
	// ownership and targets the session's current stage.
	TriggerExtraction(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ExtractionResponse, error)
}

type extractionService struct {
	uowFactory     unitofwork.RepositoryFactory
	llmProvider    llm.LLMProvider
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	group          singleflight.Group
}

func NewExtractionService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IExtractionService {
	return &extractionService{
		uowFactory:     uowFactory,
		llmProvider:    llmProvider,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *extractionService) ExtractInsights(ctx context.Context, sessionId uuid.UUID, stage string) (*dto.ExtractionResponse, error) {
	key := sessionId.String() + ":" + stage
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.extract(ctx, sessionId, stage)
	})
	if err != nil {
		return nil, err
	}
	return result.(*dto.ExtractionResponse), nil
}

func (s *extractionService) TriggerExtraction(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ExtractionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	return s.ExtractInsights(ctx, session.Id, session.CurrentStage)
}

func (s *extractionService) extract(ctx context.Context, sessionId uuid.UUID, stage string) (*dto.ExtractionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.DiagnosisSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session not found")
	}

	if stage == "" {
		stage = session.CurrentStage
	}
	if !constant.IsValidStage(stage) {
		return nil, apperror.InvalidInput(fmt.Sprintf("unknown stage: %s", stage))
	}

	transcript, err := s.loadTranscript(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}
	if transcript == "" {
		return nil, apperror.InvalidInput("no conversation to extract from")
	}

	raw, err := s.llmProvider.Chat(ctx,
		[]llm.Message{
			{Role: constant.ChatRoleSystem, Content: prompt.BuildExtractionPrompt(stage)},
			{Role: constant.ChatRoleUser, Content: transcript},
		},
		llm.WithTemperature(0.3), // deterministic JSON over creative prose
	)
	if err != nil {
		return nil, apperror.Provider("extraction completion failed", err)
	}

	parsed, err := insight.Parse(raw)
	if err != nil {
		// Never store a placeholder; the existing slot stays untouched.
		return nil, apperror.InvalidExtraction("model output rejected", err)
	}

	ent := &entity.DimensionInsight{
		Score:           parsed.Score,
		Tags:            parsed.Tags,
		KeyIssues:       parsed.KeyIssues,
		Summary:         parsed.Summary,
		Recommendations: parsed.Recommendations,
	}

	if err := uow.DiagnosisSessionRepository().UpdateInsight(ctx, session.Id, stage, ent); err != nil {
		return nil, err
	}

	s.publishExtracted(ctx, session, stage, ent.Score)

	s.logger.Info("ExtractionService", "Insights extracted", map[string]interface{}{
		"session_id": session.Id,
		"stage":      stage,
		"score":      ent.Score,
	})

	return &dto.ExtractionResponse{
		Success: true,
		Stage:   stage,
		Insight: ent,
	}, nil
}

// loadTranscript joins the session's messages oldest-first, system rows
// excluded, in "role: content" form.
func (s *extractionService) loadTranscript(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) (string, error) {
	messages, err := uow.ChatLogRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ExcludeRole{Role: constant.ChatRoleSystem},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}

	return strings.Join(lines, "\n\n"), nil
}

func (s *extractionService) publishExtracted(ctx context.Context, session *entity.DiagnosisSession, stage string, score float64) {
	if s.eventPublisher == nil {
		return
	}

	evt := events.InsightExtractedEvent{
		SessionId:  session.Id.String(),
		UserId:     session.UserId.String(),
		Stage:      stage,
		Score:      score,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("ExtractionService", "Failed to publish insight event", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
	}
}
