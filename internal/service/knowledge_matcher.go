package service

import (
	"context"

	"org-diagnostics-be/internal/repository/unitofwork"
	"org-diagnostics-be/pkg/rag/retriever"
)

// knowledgeMatcher adapts the knowledge chunk repository to the retriever's
// DocumentMatcher contract.
type knowledgeMatcher struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewKnowledgeMatcher(uowFactory unitofwork.RepositoryFactory) retriever.DocumentMatcher {
	return &knowledgeMatcher{uowFactory: uowFactory}
}

func (m *knowledgeMatcher) MatchDocuments(ctx context.Context, queryEmbedding []float32, category string, threshold float64, topK int) ([]retriever.Match, error) {
	uow := m.uowFactory.NewUnitOfWork(ctx)

	scored, err := uow.KnowledgeChunkRepository().MatchDocuments(ctx, queryEmbedding, category, threshold, topK)
	if err != nil {
		return nil, err
	}

	matches := make([]retriever.Match, len(scored))
	for i, sc := range scored {
		matches[i] = retriever.Match{
			Content:    sc.Chunk.Content,
			Category:   sc.Chunk.Category,
			Source:     sc.Chunk.Source,
			Similarity: sc.Similarity,
		}
	}
	return matches, nil
}
