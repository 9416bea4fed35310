package model

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingDimension is the dimension of the embedding vector.
// Gemini text-embedding-004 uses 768 dimensions.
const EmbeddingDimension = 768

// ChunkID is a UUID-based identifier for a document chunk.
// IDs are generated at insert time, never derived from content, so
// duplicate text never overwrites an existing chunk.
type ChunkID string

// NewChunkID generates a new UUID v4 ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}

// Chunk is the unit of indexing and retrieval: a bounded slice of a
// source document's text with its provenance tag and embedding.
// Chunks are immutable once inserted.
type Chunk struct {
	ID        ChunkID
	Text      string
	Source    string // provenance tag, used for citation only
	Embedding []float32
	CreatedAt time.Time
}

// ScoredChunk is a chunk annotated with its retrieval distance.
// Smaller distance means closer to the query vector.
type ScoredChunk struct {
	Chunk
	Distance float32
}
