package interfaces

import (
	"context"

	"github.com/secmon-lab/lectern/pkg/domain/model"
)

// Embedder encodes text into fixed-dimension vectors. Passages and
// queries use different conditioning, so the two operations are not
// interchangeable.
type Embedder interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces an answer to query grounded in the given chunks
type Generator interface {
	Answer(ctx context.Context, query string, chunks []*model.ScoredChunk, systemPrompt string) (string, error)
}
