package hosterhttp

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/joeshaw/envdecode"
)

// EnvConfig is the environment-driven configuration of a dataset hoster
// process. An absent SENTRY_DSN disables error telemetry.
type EnvConfig struct {
	Addr         string `env:"DATASET_HOSTER_ADDR,default=127.0.0.1:8080"`
	SentryDSN    string `env:"SENTRY_DSN"`
	DefaultCount int    `env:"DATASET_HOSTER_DEFAULT_COUNT,default=100"`
}

// ConfigFromEnv decodes EnvConfig from the process environment.
func ConfigFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode environment config: %w", err)
	}
	return cfg, nil
}

// InitSentry enables error telemetry when a DSN is configured. With an
// empty DSN it does nothing and every capture is a no-op.
func InitSentry(dsn string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return nil
}
