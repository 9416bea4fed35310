package config

import (
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/lectern/pkg/service/document"
)

// Chunking holds CLI flags for the document splitting policy
type Chunking struct {
	chunkSize    int
	chunkOverlap int
}

// Flags returns CLI flags for chunking configuration
func (c *Chunking) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Maximum chunk size in characters",
			Value:       document.DefaultChunkSize,
			Sources:     cli.EnvVars("LECTERN_CHUNK_SIZE"),
			Destination: &c.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Overlap between adjacent chunks in characters",
			Value:       document.DefaultChunkOverlap,
			Sources:     cli.EnvVars("LECTERN_CHUNK_OVERLAP"),
			Destination: &c.chunkOverlap,
		},
	}
}

// Configure builds the document processing pipeline
func (c *Chunking) Configure() *document.Pipeline {
	return document.New(
		document.WithChunkSize(c.chunkSize),
		document.WithChunkOverlap(c.chunkOverlap),
	)
}
