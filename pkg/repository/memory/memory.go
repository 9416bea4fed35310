package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/lectern/pkg/domain/model"
	"github.com/secmon-lab/lectern/pkg/domain/types"
)

// Store is an in-memory vector store for development and testing.
// It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[types.CollectionKey][]*model.Chunk
}

// New creates an empty in-memory vector store
func New() *Store {
	return &Store{
		collections: make(map[types.CollectionKey][]*model.Chunk),
	}
}

// copyChunk creates a deep copy of a chunk
func copyChunk(c *model.Chunk) *model.Chunk {
	copied := &model.Chunk{
		ID:        c.ID,
		Text:      c.Text,
		Source:    c.Source,
		CreatedAt: c.CreatedAt,
	}
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	return copied
}

// GetOrCreate ensures the collection exists. Creation is idempotent.
func (s *Store) GetOrCreate(ctx context.Context, key types.CollectionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[key]; !exists {
		s.collections[key] = []*model.Chunk{}
	}
	return nil
}

// Insert appends chunks to the collection as one atomic batch.
// Missing IDs are assigned fresh UUIDs so duplicate text never overwrites
// an existing chunk.
func (s *Store) Insert(ctx context.Context, key types.CollectionKey, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	batch := make([]*model.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Text == "" {
			return goerr.New("chunk text must not be empty", goerr.V("collection", key))
		}
		if len(c.Embedding) == 0 {
			return goerr.New("chunk embedding is required", goerr.V("collection", key))
		}
		copied := copyChunk(c)
		if copied.ID == "" {
			copied.ID = model.NewChunkID()
		}
		if copied.CreatedAt.IsZero() {
			copied.CreatedAt = now
		}
		batch = append(batch, copied)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[key] = append(s.collections[key], batch...)
	return nil
}

// Search returns the k nearest chunks by cosine distance. A collection
// that has never been written yields an empty result, not an error.
func (s *Store) Search(ctx context.Context, key types.CollectionKey, vector []float32, k int) ([]*model.ScoredChunk, error) {
	if k <= 0 {
		return nil, goerr.New("k must be positive", goerr.V("k", k))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, exists := s.collections[key]
	if !exists || len(chunks) == 0 {
		return []*model.ScoredChunk{}, nil
	}

	scored := make([]*model.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) != len(vector) {
			return nil, goerr.New("embedding dimension mismatch",
				goerr.V("collection", key),
				goerr.V("stored", len(c.Embedding)),
				goerr.V("query", len(vector)))
		}
		var dot float32
		for i, v := range c.Embedding {
			dot += v * vector[i]
		}
		scored = append(scored, &model.ScoredChunk{
			Chunk:    *copyChunk(c),
			Distance: 1 - dot, // vectors are normalized, dot == cosine similarity
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Close is a no-op for the in-memory store
func (s *Store) Close() error {
	return nil
}
