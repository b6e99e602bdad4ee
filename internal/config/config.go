package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Engine modes selectable at process start.
const (
	EngineModeRemote = "remote"
	EngineModeDemo   = "demo"
)

// Config holds the player core configuration loaded from environment
// variables.
type Config struct {
	// EngineMode selects the collaborator implementation: "remote" for
	// the backend engine, "demo" for the in-process one.
	EngineMode string `env:"ENGINE_MODE" envDefault:"demo"`

	EngineAddress  string `env:"ENGINE_ADDRESS"`
	EnginePassword string `env:"ENGINE_PASSWORD"`

	LibraryDBPath string `env:"LIBRARY_DB_PATH" envDefault:"chorus.db"`

	RedisAddress  string `env:"REDIS_ADDRESS"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	PositionTickMS  int `env:"POSITION_TICK_MS" envDefault:"250"`
	EventBufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"100"`
}

// Load reads configuration from environment variables and validates the
// combinations that cannot be expressed with tags.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.EngineMode {
	case EngineModeRemote:
		if cfg.EngineAddress == "" {
			return nil, fmt.Errorf("ENGINE_ADDRESS is required when ENGINE_MODE=remote")
		}
	case EngineModeDemo:
	default:
		return nil, fmt.Errorf("unknown ENGINE_MODE %q", cfg.EngineMode)
	}

	return cfg, nil
}
