package embedding

import (
	"context"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/lectern/pkg/domain/model"
)

// Asymmetric retrieval conditioning: stored passages and incoming queries
// are encoded with different task prefixes so the embedding matches the
// model's retrieval training objective. Mixing them up silently degrades
// retrieval quality, which is why this package never exposes a generic
// embed operation.
const (
	passagePrefix = "search_document: "
	queryPrefix   = "search_query: "
)

// EmbeddingClient is the part of gollem.LLMClient this service needs.
// Defined by the consumer for testability.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

// Client turns text into fixed-dimension L2-normalized vectors. It is
// safe for concurrent use; encoding calls do not mutate shared state.
type Client struct {
	llm       EmbeddingClient
	dimension int
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithDimension overrides the embedding dimension
func WithDimension(dim int) Option {
	return func(c *Client) {
		if dim > 0 {
			c.dimension = dim
		}
	}
}

// New creates an embedding client over the provided LLM client
func New(llmClient EmbeddingClient, opts ...Option) (*Client, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Client{
		llm:       llmClient,
		dimension: model.EmbeddingDimension,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dimension returns the configured embedding dimension
func (c *Client) Dimension() int {
	return c.dimension
}

// EmbedPassages encodes stored passages in one batched model call.
// A batch failure fails the whole call; callers must not index partial
// results.
func (c *Client) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, goerr.New("no texts to embed")
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = passagePrefix + t
	}

	embeddings, err := c.llm.GenerateEmbedding(ctx, c.dimension, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed passages", goerr.V("count", len(texts)))
	}
	if len(embeddings) != len(texts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("expected", len(texts)), goerr.V("got", len(embeddings)))
	}

	vectors := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		vectors[i] = normalize(e)
	}
	return vectors, nil
}

// EmbedQuery encodes a search query
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, goerr.New("query text must not be empty")
	}

	embeddings, err := c.llm.GenerateEmbedding(ctx, c.dimension, []string{queryPrefix + text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned")
	}

	return normalize(embeddings[0]), nil
}

// normalize converts to float32 and L2-normalizes so that inner product
// equals cosine similarity downstream
func normalize(v []float64) []float32 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
