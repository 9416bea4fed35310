package interfaces

import (
	"context"

	"github.com/secmon-lab/lectern/pkg/domain/model"
	"github.com/secmon-lab/lectern/pkg/domain/types"
)

// VectorStore defines the interface for per-tenant vector collections.
// Implementations must keep collections isolated: a chunk inserted under
// key K is retrievable only through searches scoped to K.
type VectorStore interface {
	// GetOrCreate ensures the collection for the key exists. It is
	// idempotent and safe under concurrent first-writers: exactly one
	// logical collection exists per key.
	GetOrCreate(ctx context.Context, key types.CollectionKey) error

	// Insert appends chunks to the collection as a single logical batch.
	// Chunk IDs are generated per call, so concurrent inserts into the
	// same collection never collide.
	Insert(ctx context.Context, key types.CollectionKey, chunks []*model.Chunk) error

	// Search returns the k nearest chunks by vector similarity with
	// their distances. A missing collection yields an empty result,
	// not an error.
	Search(ctx context.Context, key types.CollectionKey, vector []float32, k int) ([]*model.ScoredChunk, error)

	// Close releases underlying resources
	Close() error
}
