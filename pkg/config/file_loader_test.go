package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeFileConfig struct {
	NodeName string `json:"node_name"`
	Port     int    `json:"port"`
}

func TestFileConfigLoaderResolvesAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sensor-node.json"), []byte(`{"node_name":"cam","port":5005}`), 0o600))

	t.Setenv(ConfigDirEnv, dir)

	loader := &FileConfigLoader{}

	var cfg nodeFileConfig
	require.NoError(t, loader.Load(context.Background(), "sensor-node.json", &cfg))
	assert.Equal(t, nodeFileConfig{NodeName: "cam", Port: 5005}, cfg)

	abs := filepath.Join(t.TempDir(), "other.json")
	assert.Equal(t, abs, loader.ResolvePath(abs))
}

func TestFileConfigLoaderErrors(t *testing.T) {
	t.Setenv(ConfigDirEnv, "")

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	broken := filepath.Join(dir, "broken.json")

	require.NoError(t, os.WriteFile(empty, []byte(" \n"), 0o600))
	require.NoError(t, os.WriteFile(broken, []byte(`{"node_name":`), 0o600))

	loader := &FileConfigLoader{}

	var cfg nodeFileConfig

	require.ErrorIs(t, loader.Load(context.Background(), filepath.Join(dir, "missing.json"), &cfg), ErrConfigNotFound)
	require.ErrorIs(t, loader.Load(context.Background(), empty, &cfg), errEmptyConfig)
	require.ErrorContains(t, loader.Load(context.Background(), broken, &cfg), "failed to unmarshal JSON")
}
