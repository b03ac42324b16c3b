package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and XDG_CONFIG_HOME at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func load(t *testing.T, file string) (*Config, error) {
	t.Helper()
	v := viper.New()
	Setup(v, file)
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := load(t, "")
	require.NoError(t, err)

	assert.False(t, cfg.AbsolutePaths)
	assert.False(t, cfg.ShorterNames)
	assert.Equal(t, DefaultVerbosity, cfg.Verbosity)
	assert.Equal(t, DefaultSeparator, cfg.Separator)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, DefaultJournalPath(), cfg.Journal.Path)
	assert.Equal(t, DefaultRetentionDays, cfg.Journal.RetentionDays)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, DefaultLogPath(), cfg.Logging.Path)
	assert.Equal(t, "warn", cfg.Logging.Components["journal"])
}

func TestLoad_FromFile(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".config", "unfolder")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
absolute_paths: true
shorter_names: true
verbosity: 2
separator: "_"
output: json
journal:
  enabled: false
  path: ~/history
logging:
  level: debug
  rotation:
    max_size: 1MB
`), 0o644))

	cfg, err := load(t, "")
	require.NoError(t, err)

	assert.True(t, cfg.AbsolutePaths)
	assert.True(t, cfg.ShorterNames)
	assert.Equal(t, 2, cfg.Verbosity)
	assert.Equal(t, "_", cfg.Separator)
	assert.Equal(t, "json", cfg.Output)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, filepath.Join(home, "history"), cfg.Journal.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)

	lc := cfg.LoggingConfig()
	assert.Equal(t, int64(1000*1000), lc.Rotation.MaxSize)
	assert.Equal(t, "debug", lc.Level)
}

func TestLoad_XDGConfigHome(t *testing.T) {
	isolate(t)
	xdgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgHome)

	dir := filepath.Join(xdgHome, "unfolder")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("separator: \"+\"\n"), 0o644))

	cfg, err := load(t, "")
	require.NoError(t, err)
	assert.Equal(t, "+", cfg.Separator)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: yaml\n"), 0o644))

	cfg, err := load(t, path)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output)

	_, err = load(t, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("UNFOLDER_VERBOSITY", "1")
	t.Setenv("UNFOLDER_SHORTER_NAMES", "true")
	t.Setenv("UNFOLDER_JOURNAL_ENABLED", "false")

	cfg, err := load(t, "")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Verbosity)
	assert.True(t, cfg.ShorterNames)
	assert.False(t, cfg.Journal.Enabled)
}

func TestLoad_InvalidFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verbosity: [unclosed\n"), 0o644))

	_, err := load(t, path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Verbosity: 1,
			Separator: "-",
			Output:    "pretty",
			Logging:   LoggingConfig{Level: "info", Rotation: RotationConfig{MaxSize: "5MB"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"verbosity too high", func(c *Config) { c.Verbosity = 3 }, "verbosity 3"},
		{"verbosity negative", func(c *Config) { c.Verbosity = -1 }, "verbosity -1"},
		{"empty separator", func(c *Config) { c.Separator = "" }, "separator"},
		{"slash separator", func(c *Config) { c.Separator = "/" }, "separator"},
		{"unknown output", func(c *Config) { c.Output = "xml" }, `output "xml"`},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad max size", func(c *Config) { c.Logging.Rotation.MaxSize = "lots" }, "max_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_RejectsInvalidVerbosity(t *testing.T) {
	isolate(t)
	t.Setenv("UNFOLDER_VERBOSITY", "5")

	_, err := load(t, "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWriteDefault(t *testing.T) {
	home := isolate(t)

	path, err := WriteDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "unfolder", "config.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# unfolder configuration"))

	// The written file loads back to the defaults.
	cfg, err := load(t, path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeparator, cfg.Separator)
	assert.Equal(t, DefaultVerbosity, cfg.Verbosity)

	// An existing file is left alone.
	require.NoError(t, os.WriteFile(path, []byte("output: plain\n"), 0o644))
	_, err = WriteDefault()
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "output: plain\n", string(data))
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	tests := []struct {
		in   string
		want string
	}{
		{"~/journal", filepath.Join(home, "journal")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDirectories(t *testing.T) {
	assert.Equal(t, "unfolder", filepath.Base(DataDir()))
	assert.Equal(t, "unfolder", filepath.Base(StateDir()))
	assert.Equal(t, filepath.Join(DataDir(), "journal"), DefaultJournalPath())
	assert.Equal(t, filepath.Join(StateDir(), "locks"), DefaultLockDir())
}
