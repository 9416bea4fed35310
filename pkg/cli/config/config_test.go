package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/lectern/pkg/cli/config"
)

func TestAuth_Secret(t *testing.T) {
	t.Run("returns configured secret", func(t *testing.T) {
		cfg := config.NewAuthForTest("super-secret")
		secret, err := cfg.Secret()
		gt.NoError(t, err)
		gt.Value(t, string(secret)).Equal("super-secret")
	})

	t.Run("rejects missing secret", func(t *testing.T) {
		cfg := config.NewAuthForTest("")
		_, err := cfg.Secret()
		gt.Error(t, err)
	})
}

func TestGemini_Configure(t *testing.T) {
	t.Run("rejects missing project ID", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", "us-central1")
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err)
	})

	t.Run("returns flags", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", "")
		flags := cfg.Flags()
		gt.Value(t, len(flags)).Equal(2)
	})
}

func TestVectorDB_Configure(t *testing.T) {
	t.Run("memory backend needs no settings", func(t *testing.T) {
		cfg := config.NewVectorDBForTest("memory", "", "")
		store, err := cfg.Configure(t.Context())
		gt.NoError(t, err)
		gt.Value(t, store == nil).Equal(false)
		gt.NoError(t, store.Close())
	})

	t.Run("sqlite backend creates database under data dir", func(t *testing.T) {
		cfg := config.NewVectorDBForTest("sqlite", t.TempDir(), "")
		store, err := cfg.Configure(t.Context())
		gt.NoError(t, err)
		gt.NoError(t, store.Close())
	})

	t.Run("postgres backend requires DSN", func(t *testing.T) {
		cfg := config.NewVectorDBForTest("postgres", "", "")
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err)
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		cfg := config.NewVectorDBForTest("etcd", "", "")
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err)
	})
}

func TestLogger_Configure(t *testing.T) {
	t.Run("accepts valid settings", func(t *testing.T) {
		cfg := config.NewLoggerForTest("debug", "json", "stderr")
		closer, err := cfg.Configure()
		gt.NoError(t, err)
		closer()
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		cfg := config.NewLoggerForTest("verbose", "console", "-")
		_, err := cfg.Configure()
		gt.Error(t, err)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		cfg := config.NewLoggerForTest("info", "xml", "-")
		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}

func TestChunking_Configure(t *testing.T) {
	cfg := config.NewChunkingForTest(500, 100)
	pipeline := cfg.Configure()
	gt.Value(t, pipeline == nil).Equal(false)
}
