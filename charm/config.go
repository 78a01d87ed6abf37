// ABOUTME: Configuration for the Charm KV backend
// ABOUTME: Server host, auto-sync and staleness settings persisted as JSON under XDG data

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/charm/kv"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the charm KV database and the XDG data directory.
	AppName = "pipeboard"

	ConfigFileName = "charm-config.json"
)

// Config holds charm connection settings.
type Config struct {
	Host string `json:"host,omitempty"`

	// AutoSync pushes after every write and pulls before reads of stale data.
	AutoSync bool `json:"auto_sync"`

	// StaleThreshold is how old the last pull may be before a read syncs first.
	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`
}

// DefaultConfig returns a config pointing at CHARM_HOST, or the default server.
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = DefaultCharmHost
	}
	return &Config{
		Host:           host,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

// ConfigPath returns the config file location, creating its directory.
func ConfigPath() (string, error) {
	return xdg.DataFile(AppName + "/" + ConfigFileName)
}

// LoadConfig reads the config file, falling back to defaults when it is
// missing or unreadable.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		log.WithError(err).Debug("no charm config path, using defaults")
		return DefaultConfig(), nil
	}
	return LoadConfigFrom(path)
}

func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read charm config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		log.WithError(err).WithField("path", path).Warn("invalid charm config, using defaults")
		return DefaultConfig(), nil
	}
	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = kv.DefaultStaleThreshold
	}
	return cfg, nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SetAutoSync enables or disables auto-sync and saves.
func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
