package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/secmon-lab/lectern/pkg/cli/config"
	httpctrl "github.com/secmon-lab/lectern/pkg/controller/http"
	"github.com/secmon-lab/lectern/pkg/service/embedding"
	"github.com/secmon-lab/lectern/pkg/service/generator"
	"github.com/secmon-lab/lectern/pkg/usecase"
	"github.com/secmon-lab/lectern/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var uploadDir string
	var authCfg config.Auth
	var geminiCfg config.Gemini
	var vectorCfg config.VectorDB
	var chunkCfg config.Chunking

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("LECTERN_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "upload-dir",
			Usage:       "Directory where uploaded documents are stored",
			Value:       "uploads",
			Sources:     cli.EnvVars("LECTERN_UPLOAD_DIR"),
			Destination: &uploadDir,
		},
	}

	// Add shared config flags
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, vectorCfg.Flags()...)
	flags = append(flags, chunkCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			secret, err := authCfg.Secret()
			if err != nil {
				return err
			}

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			store, err := vectorCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize vector store")
			}
			defer func() {
				if err := store.Close(); err != nil {
					logging.Default().Error("failed to close vector store", "error", err.Error())
				}
			}()

			embedder, err := embedding.New(llmClient)
			if err != nil {
				return goerr.Wrap(err, "failed to create embedding client")
			}
			answerer, err := generator.New(llmClient)
			if err != nil {
				return goerr.Wrap(err, "failed to create generator")
			}

			uc := usecase.New(store, embedder, answerer,
				usecase.WithUploadDir(uploadDir),
				usecase.WithPipeline(chunkCfg.Configure()),
			)

			handler, err := httpctrl.New(uc, secret)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Stop on SIGINT/SIGTERM or when the listener fails
			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(sigCtx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				logging.Default().Info("Shutting down HTTP server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := eg.Wait(); err != nil {
				return err
			}
			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}
