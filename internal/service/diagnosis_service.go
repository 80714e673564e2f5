package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/pkg/apperror"
	"org-diagnostics-be/internal/repository/specification"
	"org-diagnostics-be/internal/repository/unitofwork"
)

type IDiagnosisService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionSummaryResponse, error)
	GetSession(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.SessionDetailResponse, error)
	AdvanceStage(ctx context.Context, userId uuid.UUID, req *dto.AdvanceStageRequest) (*dto.AdvanceStageResponse, error)
	CompleteSession(ctx context.Context, userId uuid.UUID, req *dto.CompleteSessionRequest) (*dto.CompleteSessionResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	DeleteMessage(ctx context.Context, userId uuid.UUID, messageId uuid.UUID) error
	GetKnowledgeStats(ctx context.Context) ([]*dto.KnowledgeStatsResponse, error)
}

type diagnosisService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewDiagnosisService(uowFactory unitofwork.RepositoryFactory) IDiagnosisService {
	return &diagnosisService{
		uowFactory: uowFactory,
	}
}

func (s *diagnosisService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session := entity.DiagnosisSession{
		Id:           uuid.New(),
		UserId:       userId,
		Status:       constant.SessionStatusActive,
		CurrentStage: constant.StageStrategy,
		Insights:     map[string]*entity.DimensionInsight{},
		CreatedAt:    time.Now(),
	}

	if err := uow.DiagnosisSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		Id:           session.Id,
		CurrentStage: session.CurrentStage,
		Status:       session.Status,
	}, nil
}

func (s *diagnosisService) GetSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.DiagnosisSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.SessionSummaryResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, &dto.SessionSummaryResponse{
			Id:           session.Id,
			Status:       session.Status,
			CurrentStage: session.CurrentStage,
			TotalScore:   session.TotalScore,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
		})
	}

	return response, nil
}

func (s *diagnosisService) GetSession(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.SessionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	logs, err := uow.ChatLogRepository().FindAll(ctx,
		specification.BySessionID{SessionID: id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messages := make([]*dto.ChatLogResponse, 0, len(logs))
	for _, chatLog := range logs {
		messages = append(messages, &dto.ChatLogResponse{
			Id:        chatLog.Id,
			Role:      chatLog.Role,
			Content:   chatLog.Content,
			Metadata:  chatLog.Metadata,
			CreatedAt: chatLog.CreatedAt,
		})
	}

	return &dto.SessionDetailResponse{
		Id:            session.Id,
		Status:        session.Status,
		CurrentStage:  session.CurrentStage,
		Insights:      session.Insights,
		TotalScore:    session.TotalScore,
		SummaryReport: session.SummaryReport,
		CreatedAt:     session.CreatedAt,
		Messages:      messages,
	}, nil
}

func (s *diagnosisService) AdvanceStage(ctx context.Context, userId uuid.UUID, req *dto.AdvanceStageRequest) (*dto.AdvanceStageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}

	if session.Status != constant.SessionStatusActive {
		return nil, apperror.InvalidInput("session is not active")
	}

	next := constant.NextStage(session.CurrentStage)
	if next == "" {
		return nil, apperror.New(apperror.CodeNoNextStage, "session is already at the final stage")
	}

	if err := uow.DiagnosisSessionRepository().UpdateStage(ctx, session.Id, next); err != nil {
		return nil, err
	}

	return &dto.AdvanceStageResponse{
		SessionId:     session.Id,
		PreviousStage: session.CurrentStage,
		NextStage:     next,
		Advanced:      true,
	}, nil
}

func (s *diagnosisService) CompleteSession(ctx context.Context, userId uuid.UUID, req *dto.CompleteSessionRequest) (*dto.CompleteSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}

	if session.Status == constant.SessionStatusCompleted {
		return nil, apperror.InvalidInput("session is already completed")
	}

	totalScore := aggregateScore(session.Insights)

	if err := uow.DiagnosisSessionRepository().Complete(ctx, session.Id, totalScore, req.SummaryReport); err != nil {
		return nil, err
	}

	return &dto.CompleteSessionResponse{
		SessionId:  session.Id,
		Status:     constant.SessionStatusCompleted,
		TotalScore: totalScore,
	}, nil
}

// aggregateScore is the rounded mean over all five dimension slots. Stages
// without a stored insight count as zero, so an early completion reads low
// rather than inflated.
func aggregateScore(insights map[string]*entity.DimensionInsight) int {
	var sum float64
	for _, stage := range constant.StageOrder {
		if ins, ok := insights[stage]; ok && ins != nil {
			sum += ins.Score
		}
	}
	return int(math.Round(sum / float64(len(constant.StageOrder))))
}

func (s *diagnosisService) DeleteSession(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatLogRepository().DeleteBySessionId(ctx, session.Id); err != nil {
		return err
	}

	if err := uow.DiagnosisSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *diagnosisService) DeleteMessage(ctx context.Context, userId uuid.UUID, messageId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chatLog, err := uow.ChatLogRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return err
	}
	if chatLog == nil {
		return apperror.NotFound("message not found")
	}

	// Ownership runs through the parent session.
	if _, err := findOwnedSession(ctx, uow, userId, chatLog.SessionId); err != nil {
		return err
	}

	return uow.ChatLogRepository().Delete(ctx, messageId)
}

func (s *diagnosisService) GetKnowledgeStats(ctx context.Context) ([]*dto.KnowledgeStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	counts, err := uow.KnowledgeChunkRepository().StatsByCategory(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.KnowledgeStatsResponse, 0, len(counts))
	for _, count := range counts {
		response = append(response, &dto.KnowledgeStatsResponse{
			Category:   count.Category,
			ChunkCount: count.ChunkCount,
		})
	}

	return response, nil
}

// findOwnedSession loads a session scoped to its owner. Shared by the
// services in this package; missing and foreign sessions are
// indistinguishable to the caller.
func findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, id uuid.UUID) (*entity.DiagnosisSession, error) {
	session, err := uow.DiagnosisSessionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session not found")
	}
	return session, nil
}
