// ABOUTME: Tests for charm config loading and saving
// ABOUTME: Uses temp files so the user's real config is never touched

package charm

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CHARM_HOST", "")
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)
	assert.Positive(t, cfg.StaleThreshold)
}

func TestConfigSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := &Config{Host: "charm.example.com", AutoSync: false, StaleThreshold: time.Minute}
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigInvalidJSONFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0600))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.True(t, cfg.AutoSync)
}

func TestDefaultConfigHonoursCharmHost(t *testing.T) {
	t.Setenv("CHARM_HOST", "self.hosted")
	assert.Equal(t, "self.hosted", DefaultConfig().Host)
}
