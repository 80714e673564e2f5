package embedding

import "context"

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	// Generate returns the embedding vector for the given text. It never
	// returns a zero-value vector on failure; the error carries the cause.
	Generate(ctx context.Context, text string) ([]float32, error)
}
