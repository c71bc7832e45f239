package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the default config location at an empty directory and
// clears BOOTSEL_* variables for the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{"LOGGING_LEVEL", "OUTPUT_FORMAT", "STORE_PATH", "MODULE_NAME", "MODULE_DIR", "MODULE_ENV"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		os.Unsetenv(EnvPrefix + "_" + key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Empty(t, cfg.Store.Path)
	assert.Nil(t, cfg.Module.Env)
}

func TestLoad_MissingExplicitFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
logging:
  level: debug
output:
  format: json
store:
  path: /tmp/trace.db
module:
  name: app
  dir: ./manifests/app
  env:
    platform: gecko
    locale: en
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "/tmp/trace.db", cfg.Store.Path)
	assert.Equal(t, "app", cfg.Module.Name)
	assert.Equal(t, "./manifests/app", cfg.Module.Dir)
	assert.Equal(t, map[string]string{"platform": "gecko", "locale": "en"}, cfg.Module.Env)
}

func TestLoad_DefaultLocation(t *testing.T) {
	isolate(t)
	dir := ConfigDir()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output:\n  format: json\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "logging:\n  level: info\nstore:\n  path: file.db\n")

	t.Setenv("BOOTSEL_LOGGING_LEVEL", "warn")
	t.Setenv("BOOTSEL_STORE_PATH", "env.db")
	t.Setenv("BOOTSEL_MODULE_ENV", "platform=webkit, locale=fr")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, slog.LevelWarn, cfg.Logging.SlogLevel())
	assert.Equal(t, "env.db", cfg.Store.Path)
	assert.Equal(t, map[string]string{"platform": "webkit", "locale": "fr"}, cfg.Module.Env)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad level", "logging:\n  level: loud\n", "Level"},
		{"bad format", "output:\n  format: xml\n", "Format"},
		{"bad module name", "module:\n  name: a/b\n", "Name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration validation failed")
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	isolate(t)
	_, err := Load(writeConfig(t, "logging: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_BadEnvPairs(t *testing.T) {
	isolate(t)
	t.Setenv("BOOTSEL_MODULE_ENV", "platform")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want name=value")
}

func TestParsePairs(t *testing.T) {
	got, err := ParsePairs("a=1, b=x=y,,c=")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, got)

	got, err = ParsePairs("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParsePairs("=v")
	assert.Error(t, err)
}

func TestSlogLevelFallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LoggingConfig{Level: "nonsense"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LoggingConfig{Level: "ERROR"}.SlogLevel())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	isolate(t)
	cfg := GetDefaultConfig()
	cfg.Store.Path = "trace.db"
	cfg.Module.Env = map[string]string{"locale": "fr"}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestInitConfig(t *testing.T) {
	isolate(t)

	path, err := InitConfig("", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigPath(), path)

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)

	_, err = InitConfig("", false)
	require.ErrorIs(t, err, ErrConfigExists)

	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n"), 0644))
	_, err = InitConfig(path, true)
	require.NoError(t, err)
	loaded, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "text", loaded.Output.Format)
}
