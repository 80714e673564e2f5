// Package retriever turns a user query into formatted knowledge-base context
// for the conversation prompt: embed the query, match against the vector
// store, format the hits.
package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"org-diagnostics-be/pkg/embedding"
)

const (
	DefaultThreshold = 0.7
	DefaultTopK      = 3

	// NoContextSentinel is injected into the prompt when retrieval returns
	// nothing, so the model knows the knowledge base had no relevant passages.
	NoContextSentinel = "No relevant information found in the knowledge base."
)

// Match is one scored knowledge-base passage.
type Match struct {
	Content    string
	Category   string
	Source     string
	Similarity float64
}

// DocumentMatcher performs the vector similarity search. Implemented by the
// knowledge chunk repository.
type DocumentMatcher interface {
	MatchDocuments(ctx context.Context, queryEmbedding []float32, category string, threshold float64, topK int) ([]Match, error)
}

// Options narrows a retrieval. Zero values fall back to the defaults.
type Options struct {
	Category  string
	Threshold float64
	TopK      int
}

type Retriever struct {
	embedder embedding.EmbeddingProvider
	matcher  DocumentMatcher

	// Query embeddings are deterministic per model, so repeated questions
	// within a session skip the embedding round trip.
	embedCache *gocache.Cache
}

func NewRetriever(embedder embedding.EmbeddingProvider, matcher DocumentMatcher) *Retriever {
	return &Retriever{
		embedder:   embedder,
		matcher:    matcher,
		embedCache: gocache.New(10*time.Minute, 15*time.Minute),
	}
}

// Retrieve embeds the query and returns the matching passages, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]Match, error) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	queryEmbedding, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.matcher.MatchDocuments(ctx, queryEmbedding, opts.Category, threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("match documents: %w", err)
	}

	return matches, nil
}

// RetrieveAsContext formats the matches as a prompt-ready block. The second
// return reports whether any passage was found; when false the block is the
// no-results sentinel.
func (r *Retriever) RetrieveAsContext(ctx context.Context, query string, opts Options) (string, bool, error) {
	matches, err := r.Retrieve(ctx, query, opts)
	if err != nil {
		return "", false, err
	}

	if len(matches) == 0 {
		return NoContextSentinel, false, nil
	}

	return FormatContext(matches), true, nil
}

// FormatContext renders passages as numbered sources with similarity
// percentages, separated by horizontal rules.
func FormatContext(matches []Match) string {
	blocks := make([]string, len(matches))
	for i, match := range matches {
		blocks[i] = fmt.Sprintf(
			"[Source %d] %s\n%s\n[Similarity: %.1f%%]",
			i+1, match.Source, match.Content, match.Similarity*100,
		)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	key := strings.TrimSpace(query)
	if cached, found := r.embedCache.Get(key); found {
		if vector, ok := cached.([]float32); ok {
			return vector, nil
		}
	}

	vector, err := r.embedder.Generate(ctx, query)
	if err != nil {
		return nil, err
	}

	r.embedCache.Set(key, vector, gocache.DefaultExpiration)
	return vector, nil
}
