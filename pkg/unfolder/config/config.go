package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jamesainslie/unfolder/pkg/unfolder/encoder"
	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// JournalConfig configures the run history.
type JournalConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	AbsolutePaths bool          `mapstructure:"absolute_paths" yaml:"absolute_paths"`
	ShorterNames  bool          `mapstructure:"shorter_names" yaml:"shorter_names"`
	Verbosity     int           `mapstructure:"verbosity" yaml:"verbosity"`
	Separator     string        `mapstructure:"separator" yaml:"separator"`
	Output        string        `mapstructure:"output" yaml:"output"`
	Journal       JournalConfig `mapstructure:"journal" yaml:"journal"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Setup points v at the config file and environment. An empty file
// searches $XDG_CONFIG_HOME/unfolder and ~/.config/unfolder for
// config.yaml.
func Setup(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, appName))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", appName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("absolute_paths", false)
	v.SetDefault("shorter_names", false)
	v.SetDefault("verbosity", DefaultVerbosity)
	v.SetDefault("separator", DefaultSeparator)
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "") // empty means DefaultJournalPath
	v.SetDefault("journal.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // empty means DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 14)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.components", map[string]string{
		"fold":    "info",
		"journal": "warn",
		"cli":     "info",
	})
}

// Load reads the config file, if any, and returns the validated
// configuration. A missing config file is not an error; an explicitly
// named one is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.Journal.Path, err = ExpandPath(cfg.Journal.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath()
	}
	if cfg.Logging.Path == "" {
		cfg.Logging.Path = DefaultLogPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every setting that has a restricted range.
func (c *Config) Validate() error {
	if c.Verbosity < 0 || c.Verbosity > MaxVerbosity {
		return fmt.Errorf("%w: verbosity %d is outside 0..%d", ErrInvalid, c.Verbosity, MaxVerbosity)
	}
	if err := encoder.ValidateSeparator(c.Separator); err != nil {
		return fmt.Errorf("%w: separator: %w", ErrInvalid, err)
	}
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("%w: output %q (want one of %s)", ErrInvalid, c.Output, strings.Join(OutputFormats, ", "))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalid, err)
	}
	if _, err := c.Logging.Rotation.Bytes(); err != nil {
		return fmt.Errorf("%w: logging.rotation.max_size: %w", ErrInvalid, err)
	}
	return nil
}

// Bytes parses MaxSize, which accepts humanized sizes such as "5MB".
// An empty value means the logging default.
func (r RotationConfig) Bytes() (int64, error) {
	if r.MaxSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(r.MaxSize)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	maxSize, _ := c.Logging.Rotation.Bytes()
	return logging.Config{
		Level: c.Logging.Level,
		Path:  c.Logging.Path,
		Rotation: logging.RotationConfig{
			MaxSize:    maxSize,
			MaxAge:     c.Logging.Rotation.MaxAge,
			MaxBackups: c.Logging.Rotation.MaxBackups,
		},
		Components: c.Logging.Components,
	}
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a commented default config file and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# unfolder configuration

# Record absolute paths in .refolding instead of paths relative to the root
absolute_paths: false

# Name flattened files with as few parent directories as needed
shorter_names: false

# 0 prints a summary, 1 adds directory events, 2 adds every file move
verbosity: %d

# Joins directory names in flattened file names
separator: "%s"

# Output format: pretty, plain, json, yaml
output: %s

# History of unfold and refold runs
journal:
  enabled: true
  # Empty means $XDG_DATA_HOME/unfolder/journal
  path: ""
  retention_days: %d

logging:
  # Log level: debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/unfolder/unfolder.log
  path: ""
  rotation:
    max_size: %s
    max_age: 14       # days
    max_backups: 3
  components:
    fold: info
    journal: warn
    cli: info
`, DefaultVerbosity, DefaultSeparator, DefaultOutput, DefaultRetentionDays, DefaultLogMaxSize)

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/unfolder/ for the journal.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns $XDG_STATE_HOME/unfolder/ for logs and locks.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// DefaultJournalPath returns the default journal database directory.
func DefaultJournalPath() string {
	return filepath.Join(DataDir(), "journal")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return logging.DefaultLogPath()
}

// DefaultLockDir returns the directory holding per-root lock files.
func DefaultLockDir() string {
	return filepath.Join(StateDir(), "locks")
}
