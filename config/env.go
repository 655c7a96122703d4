package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds process settings read from the environment. Command-line flags
// override them.
type Env struct {
	Socket       string  `env:"HIVE_SOCKET" envDefault:"/tmp/hive.sock"`
	Scenario     string  `env:"HIVE_SCENARIO"`
	TickRate     float64 `env:"HIVE_TICK_RATE" envDefault:"20"`
	Seed         int64   `env:"HIVE_SEED" envDefault:"1"`
	OTelEndpoint string  `env:"HIVE_OTEL_ENDPOINT"`
	LogLevel     string  `env:"HIVE_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	if e.TickRate <= 0 {
		return Env{}, fmt.Errorf("HIVE_TICK_RATE must be positive, got %v", e.TickRate)
	}
	return e, nil
}

// Level maps LogLevel onto slog, defaulting to info.
func (e Env) Level() slog.Level {
	switch strings.ToLower(e.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
