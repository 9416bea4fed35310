package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/lectern/pkg/repository/postgres"
	"github.com/secmon-lab/lectern/pkg/utils/logging"
)

func cmdMigrate() *cli.Command {
	var dsn string

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the PostgreSQL schema for the vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "postgres-dsn",
				Usage:       "PostgreSQL DSN (required)",
				Required:    true,
				Sources:     cli.EnvVars("LECTERN_POSTGRES_DSN"),
				Destination: &dsn,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			store, err := postgres.New(ctx, dsn)
			if err != nil {
				return goerr.Wrap(err, "failed to connect to postgres")
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("failed to close postgres connection", "error", err.Error())
				}
			}()

			logger.Info("Applying migrations")
			if err := store.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")

			return nil
		},
	}
}
