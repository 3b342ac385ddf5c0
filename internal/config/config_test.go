package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/config"
)

func TestLoadFallsBackToDefaultsWhenNoConfigFileExists(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().LogLevel, cfg.LogLevel)
	assert.Equal(t, config.Defaults().ListenAddress, cfg.ListenAddress)
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nlisten_address: 0.0.0.0:9443\n"), 0o644))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:9443", cfg.ListenAddress)
}

func TestLoadEnvironmentOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	t.Setenv("PVE_NETWORK_LOG_LEVEL", "error")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))
	t.Setenv("PVE_NETWORK_LOG_LEVEL", "error")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log_level", "", "")
	require.NoError(t, fs.Set("log_level", "warn"))

	cfg, err := config.Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
