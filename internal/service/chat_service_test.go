package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/pkg/apperror"
	"org-diagnostics-be/pkg/rag/retriever"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type stubMatcher struct {
	matches  []retriever.Match
	category string
}

func (s *stubMatcher) MatchDocuments(ctx context.Context, queryEmbedding []float32, category string, threshold float64, topK int) ([]retriever.Match, error) {
	s.category = category
	return s.matches, nil
}

func newChatFixture(matcher *stubMatcher, embedder *stubEmbedder, model *fakeLLM, pub *fakePublisher) (IChatService, *fakeFactory) {
	factory := newFakeFactory()
	rtr := retriever.NewRetriever(embedder, matcher)
	svc := NewChatService(factory, rtr, model, pub, nopLogger{}, 30*time.Second, 2048)
	return svc, factory
}

func TestStreamChatHappyPath(t *testing.T) {
	matcher := &stubMatcher{matches: []retriever.Match{
		{Content: "Strategy cascades from vision.", Source: "docs/strategy/vision.md", Similarity: 0.92},
	}}
	model := &fakeLLM{streamDeltas: []string{"Good ", "question", "."}}
	pub := &fakePublisher{}
	svc, factory := newChatFixture(matcher, &stubEmbedder{}, model, pub)

	userId := uuid.New()
	session := seedSession(factory, userId, constant.StageStrategy, constant.SessionStatusActive)

	var streamed strings.Builder
	result, err := svc.StreamChat(context.Background(), userId, &dto.StreamChatRequest{
		SessionId: session.Id,
		Message:   "How should we set direction?",
	}, func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Good question.", streamed.String())
	assert.Equal(t, constant.StageStrategy, result.Stage)
	assert.True(t, result.ContextRetrieved)

	// Retrieval is narrowed to the session's active dimension.
	assert.Equal(t, constant.StageStrategy, matcher.category)

	logs := factory.uow.chatLogs.bySession(session.Id)
	require.Len(t, logs, 2)
	assert.Equal(t, constant.ChatRoleUser, logs[0].Role)
	assert.Equal(t, "How should we set direction?", logs[0].Content)
	assert.Equal(t, constant.ChatRoleAssistant, logs[1].Role)
	assert.Equal(t, "Good question.", logs[1].Content)
	assert.Equal(t, true, logs[1].Metadata["rag_context_used"])

	// The finished turn queues one extraction trigger for the stage.
	published := pub.published()
	require.Len(t, published, 1)
	var msg dto.ExtractInsightsMessage
	require.NoError(t, json.Unmarshal(published[0], &msg))
	assert.Equal(t, session.Id, msg.SessionId)
	assert.Equal(t, constant.StageStrategy, msg.Stage)
}

func TestStreamChatDefaultTemperature(t *testing.T) {
	model := &fakeLLM{streamDeltas: []string{"ok"}}
	svc, factory := newChatFixture(&stubMatcher{}, &stubEmbedder{}, model, &fakePublisher{})

	userId := uuid.New()
	session := seedSession(factory, userId, constant.StageStrategy, constant.SessionStatusActive)

	_, err := svc.StreamChat(context.Background(), userId, &dto.StreamChatRequest{
		SessionId: session.Id,
		Message:   "hi",
	}, func(string) error { return nil })
	require.NoError(t, err)

	assert.InDelta(t, 0.7, model.lastOptions.Temperature, 1e-9)
	assert.Equal(t, 2048, model.lastOptions.MaxTokens)

	custom := 0.2
	_, err = svc.StreamChat(context.Background(), userId, &dto.StreamChatRequest{
		SessionId:   session.Id,
		Message:     "hi again",
		Temperature: &custom,
	}, func(string) error { return nil })
	require.NoError(t, err)
	assert.InDelta(t, 0.2, model.lastOptions.Temperature, 1e-9)
}

func TestStreamChatProviderFailureKeepsUserMessageOnly(t *testing.T) {
	model := &fakeLLM{
		streamDeltas: []string{"partial "},
		streamErr:    errors.New("upstream reset"),
	}
	pub := &fakePublisher{}
	svc, factory := newChatFixture(&stubMatcher{}, &stubEmbedder{}, model, pub)

	userId := uuid.New()
	session := seedSession(factory, userId, constant.StageStrategy, constant.SessionStatusActive)

	_, err := svc.StreamChat(context.Background(), userId, &dto.StreamChatRequest{
		SessionId: session.Id,
		Message:   "hello?",
	}, func(string) error { return nil })

	assert.Equal(t, apperror.CodeProviderError, apperror.CodeOf(err))

	// The user's message survives; the half-finished reply does not.
	logs := factory.uow.chatLogs.bySession(session.Id)
	require.Len(t, logs, 1)
	assert.Equal(t, constant.ChatRoleUser, logs[0].Role)

	assert.Empty(t, pub.published())
}

func TestStreamChatDegradesWhenRetrievalFails(t *testing.T) {
	model := &fakeLLM{streamDeltas: []string{"still helpful"}}
	svc, factory := newChatFixture(&stubMatcher{}, &stubEmbedder{err: errors.New("embedder down")}, model, &fakePublisher{})

	userId := uuid.New()
	session := seedSession(factory, userId, constant.StageStructure, constant.SessionStatusActive)

	result, err := svc.StreamChat(context.Background(), userId, &dto.StreamChatRequest{
		SessionId: session.Id,
		Message:   "spans of control?",
	}, func(string) error { return nil })
	require.NoError(t, err)

	assert.False(t, result.ContextRetrieved)
	logs := factory.uow.chatLogs.bySession(session.Id)
	require.Len(t, logs, 2)
	assert.Equal(t, false, logs[1].Metadata["rag_context_used"])
}

func TestStreamChatForeignSessionPersistsNothing(t *testing.T) {
	model := &fakeLLM{streamDeltas: []string{"never sent"}}
	svc, factory := newChatFixture(&stubMatcher{}, &stubEmbedder{}, model, &fakePublisher{})

	session := seedSession(factory, uuid.New(), constant.StageStrategy, constant.SessionStatusActive)

	_, err := svc.StreamChat(context.Background(), uuid.New(), &dto.StreamChatRequest{
		SessionId: session.Id,
		Message:   "not mine",
	}, func(string) error { return nil })

	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
	assert.Empty(t, factory.uow.chatLogs.bySession(session.Id))
}

func TestGetHistoryOrdersOldestFirst(t *testing.T) {
	svc, factory := newChatFixture(&stubMatcher{}, &stubEmbedder{}, &fakeLLM{}, &fakePublisher{})

	userId := uuid.New()
	session := seedSession(factory, userId, constant.StageStrategy, constant.SessionStatusActive)
	factory.uow.chatLogs.logs = append(factory.uow.chatLogs.logs,
		&entity.ChatLog{Id: uuid.New(), SessionId: session.Id, Role: constant.ChatRoleUser, Content: "first"},
		&entity.ChatLog{Id: uuid.New(), SessionId: session.Id, Role: constant.ChatRoleAssistant, Content: "second"},
		&entity.ChatLog{Id: uuid.New(), SessionId: uuid.New(), Role: constant.ChatRoleUser, Content: "other session"},
	)

	history, err := svc.GetHistory(context.Background(), userId, session.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)

	_, err = svc.GetHistory(context.Background(), uuid.New(), session.Id)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
}
