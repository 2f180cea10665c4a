// Package config loads process configuration from the environment,
// optionally seeded from a .env file during local development.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var cfg *config

type config struct {
	Engine Engine
	Logger Logger
}

// Engine configures the model generation pipeline.
type Engine struct {
	// OutputDir receives all generated artifacts.
	OutputDir string `env:"BINFORGE_OUTPUT_DIR" envDefault:"./output"`
	// MeshCells is the marching cubes resolution along the longest
	// axis. 0 uses the engine default.
	MeshCells int `env:"BINFORGE_MESH_CELLS" envDefault:"0"`
	// FontPaths overrides the candidate label font files, highest
	// priority first. Empty uses the built-in search list.
	FontPaths []string `env:"BINFORGE_FONT_PATHS" envSeparator:":"`
}

// Logger configures the process logger.
type Logger struct {
	Level  string `env:"LOGGER_LEVEL" envDefault:"info"`
	AsJSON bool   `env:"LOGGER_AS_JSON" envDefault:"false"`
}

func Load(path ...string) error {
	const op = "config.Load"

	if shouldLoadDotenv() {
		if err := godotenv.Load(path...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: load .env: %w", op, err)
		}
	}

	c := &config{}
	if err := env.Parse(&c.Engine); err != nil {
		return fmt.Errorf("%s Engine: %w", op, err)
	}
	if err := env.Parse(&c.Logger); err != nil {
		return fmt.Errorf("%s Logger: %w", op, err)
	}

	cfg = c
	return nil
}

func C() *config { return cfg }

func shouldLoadDotenv() bool {
	return os.Getenv("APP_ENV") == "local"
}
