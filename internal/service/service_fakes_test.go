package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/repository/contract"
	"org-diagnostics-be/internal/repository/specification"
	"org-diagnostics-be/internal/repository/unitofwork"
	"org-diagnostics-be/pkg/llm"
)

// In-memory doubles for the repository layer. They interpret the same
// specifications the gorm implementations translate to SQL, so service tests
// exercise the real query composition.

type fakeFactory struct {
	uow *fakeUow
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{uow: newFakeUow()}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeUow struct {
	sessions  *fakeSessionRepo
	chatLogs  *fakeChatLogRepo
	knowledge *fakeKnowledgeRepo

	beginCalls    int
	commitCalls   int
	rollbackCalls int
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		sessions:  &fakeSessionRepo{byId: map[uuid.UUID]*entity.DiagnosisSession{}},
		chatLogs:  &fakeChatLogRepo{},
		knowledge: &fakeKnowledgeRepo{},
	}
}

func (u *fakeUow) Begin(ctx context.Context) error { u.beginCalls++; return nil }
func (u *fakeUow) Commit() error                   { u.commitCalls++; return nil }
func (u *fakeUow) Rollback() error                 { u.rollbackCalls++; return nil }

func (u *fakeUow) DiagnosisSessionRepository() contract.DiagnosisSessionRepository {
	return u.sessions
}
func (u *fakeUow) ChatLogRepository() contract.ChatLogRepository           { return u.chatLogs }
func (u *fakeUow) KnowledgeChunkRepository() contract.KnowledgeChunkRepository { return u.knowledge }

type fakeSessionRepo struct {
	mu   sync.Mutex
	byId map[uuid.UUID]*entity.DiagnosisSession

	findErr          error
	updateInsightErr error

	insightUpdates int
	stageUpdates   []string
}

func sessionMatches(s *entity.DiagnosisSession, specs []specification.Specification) bool {
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != v.UserID {
				return false
			}
		}
	}
	return true
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.DiagnosisSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byId[session.Id] = session
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiagnosisSession, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byId {
		if sessionMatches(s, specs) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiagnosisSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.DiagnosisSession
	for _, s := range r.byId {
		if sessionMatches(s, specs) {
			out = append(out, s)
		}
	}

	for _, sp := range specs {
		if order, ok := sp.(specification.OrderBy); ok && order.Field == "created_at" {
			sort.Slice(out, func(i, j int) bool {
				if order.Desc {
					return out[i].CreatedAt.After(out[j].CreatedAt)
				}
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			})
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byId, id)
	return nil
}

func (r *fakeSessionRepo) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stageUpdates = append(r.stageUpdates, stage)
	if s, ok := r.byId[id]; ok {
		s.CurrentStage = stage
	}
	return nil
}

func (r *fakeSessionRepo) UpdateInsight(ctx context.Context, id uuid.UUID, stage string, insight *entity.DimensionInsight) error {
	if r.updateInsightErr != nil {
		return r.updateInsightErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insightUpdates++
	if s, ok := r.byId[id]; ok {
		if s.Insights == nil {
			s.Insights = map[string]*entity.DimensionInsight{}
		}
		s.Insights[stage] = insight
	}
	return nil
}

func (r *fakeSessionRepo) Complete(ctx context.Context, id uuid.UUID, totalScore int, summaryReport string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byId[id]; ok {
		s.Status = "completed"
		s.TotalScore = totalScore
		s.SummaryReport = &summaryReport
	}
	return nil
}

type fakeChatLogRepo struct {
	mu   sync.Mutex
	logs []*entity.ChatLog

	createErr error
}

func chatLogMatches(l *entity.ChatLog, specs []specification.Specification) bool {
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByID:
			if l.Id != v.ID {
				return false
			}
		case specification.BySessionID:
			if l.SessionId != v.SessionID {
				return false
			}
		case specification.ExcludeRole:
			if l.Role == v.Role {
				return false
			}
		}
	}
	return true
}

func (r *fakeChatLogRepo) Create(ctx context.Context, log *entity.ChatLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeChatLogRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if chatLogMatches(l, specs) {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeChatLogRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Insertion order doubles as created_at ascending.
	var out []*entity.ChatLog
	for _, l := range r.logs {
		if chatLogMatches(l, specs) {
			out = append(out, l)
		}
	}
	for _, sp := range specs {
		if order, ok := sp.(specification.OrderBy); ok && order.Desc {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeChatLogRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeChatLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.logs {
		if l.Id == id {
			r.logs = append(r.logs[:i], r.logs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeChatLogRepo) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	for _, l := range r.logs {
		if l.SessionId != sessionId {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return nil
}

func (r *fakeChatLogRepo) bySession(sessionId uuid.UUID) []*entity.ChatLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ChatLog
	for _, l := range r.logs {
		if l.SessionId == sessionId {
			out = append(out, l)
		}
	}
	return out
}

type fakeKnowledgeRepo struct {
	stats []*contract.CategoryCount
}

func (r *fakeKnowledgeRepo) CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error {
	return nil
}

func (r *fakeKnowledgeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error) {
	return nil, nil
}

func (r *fakeKnowledgeRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func (r *fakeKnowledgeRepo) MatchDocuments(ctx context.Context, embedding []float32, category string, threshold float64, topK int) ([]*contract.ScoredKnowledgeChunk, error) {
	return nil, nil
}

func (r *fakeKnowledgeRepo) StatsByCategory(ctx context.Context) ([]*contract.CategoryCount, error) {
	return r.stats, nil
}

// fakeLLM scripts completions without a network. block, when set, holds Chat
// open until released so tests can pile up concurrent callers.
type fakeLLM struct {
	mu        sync.Mutex
	chatCalls int

	reply   string
	chatErr error
	block   chan struct{}
	entered chan struct{}

	streamDeltas []string
	streamErr    error

	lastOptions llm.Options
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.mu.Lock()
	f.chatCalls++
	options := llm.Options{}
	for _, opt := range opts {
		opt(&options)
	}
	f.lastOptions = options
	entered := f.entered
	block := f.block
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.reply, nil
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaHandler, opts ...llm.Option) error {
	f.mu.Lock()
	options := llm.Options{}
	for _, opt := range opts {
		opt(&options)
	}
	f.lastOptions = options
	f.mu.Unlock()

	for _, delta := range f.streamDeltas {
		if err := onDelta(delta); err != nil {
			return err
		}
	}
	return f.streamErr
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatCalls
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads...)
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
