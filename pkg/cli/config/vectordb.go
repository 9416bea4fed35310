package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/lectern/pkg/domain/interfaces"
	"github.com/secmon-lab/lectern/pkg/repository/memory"
	"github.com/secmon-lab/lectern/pkg/repository/postgres"
	"github.com/secmon-lab/lectern/pkg/repository/sqlite"
	"github.com/secmon-lab/lectern/pkg/utils/logging"
)

// VectorDB holds CLI flags for vector store backend configuration
type VectorDB struct {
	backend string
	dataDir string
	dsn     string
}

// Flags returns CLI flags for vector store configuration
func (v *VectorDB) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "vector-backend",
			Usage:       "Vector store backend (sqlite, postgres or memory)",
			Value:       "sqlite",
			Sources:     cli.EnvVars("LECTERN_VECTOR_BACKEND"),
			Destination: &v.backend,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory for the sqlite vector store database",
			Value:       "data",
			Sources:     cli.EnvVars("LECTERN_DATA_DIR"),
			Destination: &v.dataDir,
		},
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "PostgreSQL DSN (required when using postgres backend)",
			Sources:     cli.EnvVars("LECTERN_POSTGRES_DSN"),
			Destination: &v.dsn,
		},
	}
}

// Backend returns the configured backend type
func (v *VectorDB) Backend() string {
	return v.backend
}

// DSN returns the configured PostgreSQL DSN
func (v *VectorDB) DSN() string {
	return v.dsn
}

// Configure initializes and returns a vector store based on the
// configured backend. The caller is responsible for calling Close()
// on the returned store.
func (v *VectorDB) Configure(ctx context.Context) (interfaces.VectorStore, error) {
	switch v.backend {
	case "sqlite":
		store, err := sqlite.New(v.dataDir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite vector store")
		}
		logging.Default().Info("Using sqlite vector store", "data_dir", v.dataDir)
		return store, nil

	case "postgres":
		if v.dsn == "" {
			return nil, goerr.New("postgres-dsn is required when using postgres backend")
		}
		store, err := postgres.New(ctx, v.dsn)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize postgres vector store")
		}
		logging.Default().Info("Using postgres vector store")
		return store, nil

	case "memory":
		logging.Default().Info("Using in-memory vector store (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid vector store backend", goerr.V("backend", v.backend))
	}
}
