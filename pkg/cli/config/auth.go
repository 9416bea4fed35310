package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Auth holds CLI flags for the token validation secret
type Auth struct {
	secret string
}

// Flags returns CLI flags for authentication configuration
func (a *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "Shared HMAC secret used to verify bearer tokens",
			Sources:     cli.EnvVars("LECTERN_JWT_SECRET"),
			Destination: &a.secret,
		},
	}
}

// LogValue keeps the secret out of structured logs
func (a Auth) LogValue() slog.Value {
	return slog.GroupValue(slog.Bool("configured", a.secret != ""))
}

// Secret returns the signing secret after validating it is set
func (a *Auth) Secret() ([]byte, error) {
	if a.secret == "" {
		return nil, goerr.New("jwt-secret is required")
	}
	return []byte(a.secret), nil
}
