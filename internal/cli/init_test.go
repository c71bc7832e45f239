package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bootsel/internal/config"
)

func TestInit_WritesDefaults(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "bootsel", "config.yaml")

	out, _, err := execute(t, NewRootCommand(), "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote configuration to "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.GetDefaultConfig(), cfg)
}

func TestInit_DefaultLocation(t *testing.T) {
	dir := isolateConfig(t)

	_, _, err := execute(t, NewRootCommand(), "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "bootsel", "config.yaml"))
}

func TestInit_ExistingFile(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: trace.db\n"), 0644))

	_, _, err := execute(t, NewRootCommand(), "init", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, config.ErrConfigExists)

	_, _, err = execute(t, NewRootCommand(), "init", "--config", path, "--force")
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Store.Path)
}
