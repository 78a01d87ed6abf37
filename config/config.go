// ABOUTME: Runtime configuration from the environment and an optional .env file
// ABOUTME: Resolves database path, backend, board tuning, logging and service ports
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const AppName = "pipeboard"

const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

type Config struct {
	DBPath   string `env:"PIPEBOARD_DB_PATH"`
	Backend  string `env:"PIPEBOARD_BACKEND"`
	Pipeline string `env:"PIPEBOARD_PIPELINE"`

	// Board tuning, in terminal cells.
	DragThreshold float64 `env:"PIPEBOARD_DRAG_THRESHOLD"`
	DropReach     float64 `env:"PIPEBOARD_DROP_REACH"`

	MoveTimeout  time.Duration `env:"PIPEBOARD_MOVE_TIMEOUT"`
	MoveAttempts int           `env:"PIPEBOARD_MOVE_ATTEMPTS"`
	RetryBackoff time.Duration `env:"PIPEBOARD_RETRY_BACKOFF"`

	LogLevel log.Level `env:"PIPEBOARD_LOG_LEVEL"`
	LogFile  string    `env:"PIPEBOARD_LOG_FILE"`

	RedisURL string `env:"PIPEBOARD_REDIS_URL"`
	WebPort  int    `env:"PIPEBOARD_WEB_PORT"`
}

func Default() Config {
	return Config{
		DBPath:        filepath.Join(xdg.DataHome, AppName, AppName+".db"),
		Backend:       BackendSQLite,
		DragThreshold: 1,
		DropReach:     0,
		MoveTimeout:   10 * time.Second,
		MoveAttempts:  1,
		RetryBackoff:  500 * time.Millisecond,
		LogLevel:      log.InfoLevel,
		LogFile:       filepath.Join(xdg.StateHome, AppName, AppName+".log"),
		WebPort:       8080,
	}
}

// Load reads .env from the working directory when present, then the
// PIPEBOARD_* environment. Existing environment variables win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv(nil)
}

// FromEnv overlays environ on the defaults. A nil environ means the process
// environment. Unset or empty variables keep their default.
func FromEnv(environ map[string]string) (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendCharm:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendCharm)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.DragThreshold < 0 || c.DropReach < 0 {
		return fmt.Errorf("drag threshold and drop reach must not be negative")
	}
	if c.MoveTimeout < 0 || c.RetryBackoff < 0 {
		return fmt.Errorf("move timeout and retry backoff must not be negative")
	}
	if c.MoveAttempts < 1 {
		return fmt.Errorf("move attempts must be at least 1, got %d", c.MoveAttempts)
	}
	if c.WebPort < 1 || c.WebPort > 65535 {
		return fmt.Errorf("web port %d out of range", c.WebPort)
	}
	return nil
}
