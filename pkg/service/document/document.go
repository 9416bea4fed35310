package document

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/secmon-lab/lectern/pkg/domain/model"
	"github.com/secmon-lab/lectern/pkg/utils/logging"
)

// DefaultChunkSize is the default number of characters per chunk
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
const DefaultChunkOverlap = 200

// Sentinel errors for the chunking pipeline
var (
	ErrUnsupportedFormat = goerr.New("unsupported file format")
	ErrNoExtractableText = goerr.New("no extractable text in document")
)

// loader extracts raw text segments (e.g. one per page) from a file
type loader func(path string) ([]string, error)

// supportedLoaders is the fixed extension-to-loader mapping. Adding a
// format means adding an entry here, nothing else.
var supportedLoaders = map[string]loader{
	".pdf":  loadPDF,
	".docx": loadDOCX,
	".txt":  loadText,
}

// IsSupported reports whether the file extension has a registered loader
func IsSupported(filename string) bool {
	_, ok := supportedLoaders[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Pipeline loads a document by format and splits it into overlapping
// chunks stamped with a provenance tag. Splitting is deterministic for a
// fixed input and configuration.
type Pipeline struct {
	chunkSize    int
	chunkOverlap int
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithChunkSize sets the chunk size in characters
func WithChunkSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the overlap between adjacent chunks in characters
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) {
		if overlap >= 0 {
			p.chunkOverlap = overlap
		}
	}
}

// New creates a chunking pipeline
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.chunkOverlap >= p.chunkSize {
		p.chunkOverlap = p.chunkSize / 4
	}
	return p
}

// Process loads the file at path and returns unembedded chunks, each
// stamped with the provenance tag. Whitespace-only chunks are dropped; a
// document that yields no chunks at all is an extraction failure, not a
// silent success.
func (p *Pipeline) Process(ctx context.Context, path, provenance string) ([]*model.Chunk, error) {
	ext := strings.ToLower(filepath.Ext(path))
	load, ok := supportedLoaders[ext]
	if !ok {
		return nil, goerr.Wrap(ErrUnsupportedFormat, "no loader for extension", goerr.V("ext", ext))
	}

	segments, err := load(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load document", goerr.V("path", path))
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)

	var chunks []*model.Chunk
	for _, segment := range segments {
		parts, err := splitter.SplitText(segment)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to split document text")
		}
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, &model.Chunk{
				Text:   part,
				Source: provenance,
			})
		}
	}

	if len(chunks) == 0 {
		return nil, goerr.Wrap(ErrNoExtractableText, "document produced no chunks", goerr.V("path", path))
	}

	logging.From(ctx).Debug("document processed",
		"path", path, "segments", len(segments), "chunks", len(chunks))

	return chunks, nil
}
