package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "BOOTSEL"

// Config is the bootsel tool configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Module  ModuleConfig  `mapstructure:"module" yaml:"module"`
}

// LoggingConfig controls the default slog handler.
type LoggingConfig struct {
	// Level is DEBUG, INFO, WARN or ERROR (case-insensitive).
	// Default: INFO
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
}

// SlogLevel returns the configured level as a slog.Level.
func (c LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// OutputConfig controls command output.
type OutputConfig struct {
	// Format is text or json.
	// Default: text
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
}

// StoreConfig locates the trace database.
type StoreConfig struct {
	// Path is the sqlite database path. Empty disables recording.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// ModuleConfig supplies defaults for the select command.
type ModuleConfig struct {
	// Name is the module expected in the manifest. Empty accepts any.
	Name string `mapstructure:"name" validate:"omitempty,excludesall=/=" yaml:"name,omitempty"`

	// Dir is the default manifest directory.
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`

	// Env maps property names to computed values. viper lowercases the
	// keys, so property names here should be lowercase.
	Env map[string]string `mapstructure:"env" yaml:"env,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath searches the default location. A missing file is not
// an error; environment variables and defaults still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tags on cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig writes cfg as YAML, creating the parent directory.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ErrConfigExists is returned by InitConfig when the file is already there
// and force is false.
var ErrConfigExists = errors.New("config file already exists")

// InitConfig writes the default configuration to path and returns the path
// written. An empty path means DefaultConfigPath(). An existing file is only
// replaced when force is set.
func InitConfig(path string, force bool) (string, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
	}
	if err := SaveConfig(GetDefaultConfig(), path); err != nil {
		return path, err
	}
	return path, nil
}

// setupViper configures environment variables and the config file search.
func setupViper(v *viper.Viper, configPath string) {
	// BOOTSEL_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only reaches keys viper already knows about.
	for _, key := range []string{"logging.level", "output.format", "store.path", "module.name", "module.dir", "module.env"} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(ConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reports whether a config file was read.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		pairsDecodeHook(),
	)
}

// pairsDecodeHook converts "a=1,b=2" into a map. Environment variables
// cannot carry nested keys, so BOOTSEL_MODULE_ENV arrives as a string.
func pairsDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(map[string]string(nil)) {
			return data, nil
		}
		s, ok := data.(string)
		if !ok {
			return data, nil
		}
		return ParsePairs(s)
	}
}

// ParsePairs parses comma-separated name=value pairs. Blank items are
// skipped; an item without '=' is an error.
func ParsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, value, ok := strings.Cut(item, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid pair %q: want name=value", item)
		}
		out[name] = value
	}
	return out, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/bootsel, falling back to
// ~/.config/bootsel.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bootsel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "bootsel")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
