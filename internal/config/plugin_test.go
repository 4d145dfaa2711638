package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPluginConfigDefaults(t *testing.T) {
	cfg, err := LoadPluginConfig()
	require.NoError(t, err)
	assert.Equal(t, *DefaultPluginConfig(), *cfg)
}

func TestLoadPluginConfigEnv(t *testing.T) {
	t.Setenv("VPXPLUGIN_LOG_LEVEL", "debug")
	t.Setenv("VPXPLUGIN_LOG_FORMAT", "json")

	cfg, err := LoadPluginConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Output)
}

func TestLoadPluginConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n  output: /tmp/plugin.log\n"), 0o600))

	t.Setenv("VPXPLUGIN_CONFIG", path)
	t.Setenv("VPXPLUGIN_LOG_LEVEL", "error")

	cfg, err := LoadPluginConfig()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level, "environment wins over the file")
	assert.Equal(t, "/tmp/plugin.log", cfg.Log.Output)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadPluginConfigBadFile(t *testing.T) {
	t.Setenv("VPXPLUGIN_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadPluginConfig()
	assert.Error(t, err)
}
