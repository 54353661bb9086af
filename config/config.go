// Package config reads settings for the banker binaries from the
// environment, with an optional .env file underneath.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	WebAddr  string `env:"BANKER_WEB_ADDR" envDefault:"0.0.0.0:1235"`
	TCPAddr  string `env:"BANKER_TCP_ADDR" envDefault:"0.0.0.0:1234"`
	GRPCAddr string `env:"BANKER_GRPC_ADDR" envDefault:"127.0.0.1:1236"`

	// Store is none, file, sqlite or redis
	Store      string `env:"BANKER_STORE" envDefault:"file"`
	StateDir   string `env:"BANKER_STATE_DIR" envDefault:"."`
	SQLitePath string `env:"BANKER_SQLITE_PATH" envDefault:"banker.db"`
	RedisAddr  string `env:"BANKER_REDIS_ADDR" envDefault:"127.0.0.1:6379"`

	TicketSecret string        `env:"BANKER_TICKET_SECRET"`
	TicketTTL    time.Duration `env:"BANKER_TICKET_TTL" envDefault:"24h"`

	AllowedOrigins []string `env:"BANKER_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// AdminToken, when set, must be sent as a bearer token to close rooms
	AdminToken string `env:"BANKER_ADMIN_TOKEN"`

	LogLevel string `env:"BANKER_LOG_LEVEL" envDefault:"info"`

	OTelEndpoint string `env:"BANKER_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"BANKER_OTEL_ENABLED" envDefault:"true"`
}

// Load reads .env files if there are any, then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return Parse()
}

// Parse reads only the environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case "none", "file", "sqlite", "redis":
	default:
		return fmt.Errorf("BANKER_STORE must be none, file, sqlite or redis, not %q", c.Store)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("BANKER_LOG_LEVEL: %w", err)
	}
	return nil
}

// Level is the parsed log level.
func (c Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
