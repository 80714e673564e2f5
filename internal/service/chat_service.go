package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/pkg/apperror"
	"org-diagnostics-be/internal/pkg/logger"
	"org-diagnostics-be/internal/repository/specification"
	"org-diagnostics-be/internal/repository/unitofwork"
	"org-diagnostics-be/pkg/llm"
	"org-diagnostics-be/pkg/rag/prompt"
	"org-diagnostics-be/pkg/rag/retriever"
)

type IChatService interface {
	// StreamChat runs one grounded conversation turn, relaying the reply
	// incrementally through onChunk.
	StreamChat(ctx context.Context, userId uuid.UUID, req *dto.StreamChatRequest, onChunk func(string) error) (*dto.StreamChatResult, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatLogResponse, error)
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	retriever        *retriever.Retriever
	llmProvider      llm.LLMProvider
	publisherService IPublisherService
	logger           logger.ILogger
	streamTimeout    time.Duration
	maxTokens        int
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	rtr *retriever.Retriever,
	llmProvider llm.LLMProvider,
	publisherService IPublisherService,
	log logger.ILogger,
	streamTimeout time.Duration,
	maxTokens int,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		retriever:        rtr,
		llmProvider:      llmProvider,
		publisherService: publisherService,
		logger:           log,
		streamTimeout:    streamTimeout,
		maxTokens:        maxTokens,
	}
}

func (s *chatService) StreamChat(ctx context.Context, userId uuid.UUID, req *dto.StreamChatRequest, onChunk func(string) error) (*dto.StreamChatResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}

	// Retrieval narrows to the active dimension. A retrieval failure degrades
	// the turn to ungrounded advice instead of failing it.
	ragContext, contextRetrieved, err := s.retriever.RetrieveAsContext(ctx, req.Message, retriever.Options{
		Category: session.CurrentStage,
	})
	if err != nil {
		s.logger.Warn("ChatService", "Retrieval failed, continuing without context", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
		ragContext = retriever.NoContextSentinel
		contextRetrieved = false
	}

	systemPrompt := prompt.BuildConversationPrompt(session.CurrentStage, ragContext)

	// The user message is durable as soon as the turn starts; only the
	// assistant reply waits for a fully drained stream.
	userLog := entity.ChatLog{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      constant.ChatRoleUser,
		Content:   req.Message,
		Metadata: map[string]interface{}{
			"stage":     session.CurrentStage,
			"timestamp": time.Now().Format(time.RFC3339),
		},
		CreatedAt: time.Now(),
	}
	if err := uow.ChatLogRepository().Create(ctx, &userLog); err != nil {
		return nil, err
	}

	temperature := 0.7
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	history := []llm.Message{
		{Role: constant.ChatRoleSystem, Content: systemPrompt},
		{Role: constant.ChatRoleUser, Content: req.Message},
	}

	streamCtx, cancel := context.WithTimeout(ctx, s.streamTimeout)
	defer cancel()

	var fullReply strings.Builder
	err = s.llmProvider.ChatStream(streamCtx, history,
		func(delta string) error {
			fullReply.WriteString(delta)
			return onChunk(delta)
		},
		llm.WithTemperature(temperature),
		llm.WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		return nil, apperror.Provider("completion stream failed", err)
	}

	replyLog := entity.ChatLog{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      constant.ChatRoleAssistant,
		Content:   fullReply.String(),
		Metadata: map[string]interface{}{
			"stage":            session.CurrentStage,
			"timestamp":        time.Now().Format(time.RFC3339),
			"rag_context_used": contextRetrieved,
		},
		CreatedAt: time.Now(),
	}
	if err := uow.ChatLogRepository().Create(ctx, &replyLog); err != nil {
		return nil, err
	}

	s.triggerExtraction(ctx, session.Id, session.CurrentStage)

	return &dto.StreamChatResult{
		SessionId:        session.Id,
		Stage:            session.CurrentStage,
		UserMessageId:    userLog.Id,
		ReplyMessageId:   replyLog.Id,
		ContextRetrieved: contextRetrieved,
	}, nil
}

// triggerExtraction hands the finished turn to the background extraction
// pipeline. Never fails the turn; extraction is auxiliary.
func (s *chatService) triggerExtraction(ctx context.Context, sessionId uuid.UUID, stage string) {
	payload := dto.ExtractInsightsMessage{
		SessionId: sessionId,
		Stage:     stage,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("ChatService", "Failed to marshal extraction trigger", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		s.logger.Warn("ChatService", "Failed to publish extraction trigger", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
}

func (s *chatService) GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatLogResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	logs, err := uow.ChatLogRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.ChatLogResponse, 0, len(logs))
	for _, chatLog := range logs {
		response = append(response, &dto.ChatLogResponse{
			Id:        chatLog.Id,
			Role:      chatLog.Role,
			Content:   chatLog.Content,
			Metadata:  chatLog.Metadata,
			CreatedAt: chatLog.CreatedAt,
		})
	}

	return response, nil
}
