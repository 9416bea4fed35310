package usecase

import (
	"github.com/secmon-lab/lectern/pkg/domain/interfaces"
	"github.com/secmon-lab/lectern/pkg/service/document"
)

const defaultTopK = 3

type UseCases struct {
	vectorStore interfaces.VectorStore
	embedder    interfaces.Embedder
	generator   interfaces.Generator
	pipeline    *document.Pipeline
	uploadDir   string
	topK        int
}

type Option func(*UseCases)

// WithUploadDir sets the directory where uploaded files are stored
func WithUploadDir(dir string) Option {
	return func(uc *UseCases) {
		uc.uploadDir = dir
	}
}

// WithPipeline replaces the default document processing pipeline
func WithPipeline(p *document.Pipeline) Option {
	return func(uc *UseCases) {
		uc.pipeline = p
	}
}

// WithTopK sets how many chunks retrieval returns per query
func WithTopK(k int) Option {
	return func(uc *UseCases) {
		if k > 0 {
			uc.topK = k
		}
	}
}

func New(vectorStore interfaces.VectorStore, embedder interfaces.Embedder, generator interfaces.Generator, opts ...Option) *UseCases {
	uc := &UseCases{
		vectorStore: vectorStore,
		embedder:    embedder,
		generator:   generator,
		pipeline:    document.New(),
		uploadDir:   "uploads",
		topK:        defaultTopK,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
