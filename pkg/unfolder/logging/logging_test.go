package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
)

// These tests share the package's global state and do not run in parallel.

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"warn", logging.LevelWarn, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"loud", logging.LevelInfo, true},
		{"", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, logging.ErrInvalidLevel))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", logging.LevelDebug.String())
	assert.Equal(t, "error", logging.LevelError.String())
	assert.Equal(t, "unknown", logging.Level(42).String())
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  logging.Config{Level: "info", Path: filepath.Join(dir, "a.log")},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "warn",
				Path:       filepath.Join(dir, "b.log"),
				Components: map[string]string{"fold": "debug"},
			},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud", Path: filepath.Join(dir, "c.log")},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(dir, "d.log"),
				Components: map[string]string{"fold": "chatty"},
			},
			wantErr: true,
		},
		{
			name:    "invalid console level",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(dir, "e.log"), ConsoleLevel: "shout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, logging.Close())
		})
	}
}

func TestGetReturnsSameLogger(t *testing.T) {
	a := logging.Get("walker")
	b := logging.Get("walker")
	assert.Same(t, a, b)
	assert.Equal(t, "walker", a.Component())
}

func TestLoggerWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "unfolder.log")

	// Obtained before Init, the way package-level loggers are.
	logger := logging.Get("fold-test")
	logger.Info("dropped before init")

	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: logPath}))
	logger.Info("unfold started", "root", "/data/photos")
	logger.Debug("below the level")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "unfold started")
	assert.Contains(t, content, "/data/photos")
	assert.Contains(t, content, "fold-test")
	assert.NotContains(t, content, "dropped before init")
	assert.NotContains(t, content, "below the level")
}

func TestComponentLevelOverride(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "unfolder.log")

	require.NoError(t, logging.Init(logging.Config{
		Level:      "error",
		Path:       logPath,
		Components: map[string]string{"chatty": "debug"},
	}))
	logging.Get("chatty").Debug("chatty detail")
	logging.Get("quiet").Info("quiet detail")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chatty detail")
	assert.NotContains(t, string(data), "quiet detail")
}

func TestWithAddsContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "unfolder.log")

	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: logPath}))
	logging.Get("cli").With("root", "/srv/music").Info("refold complete")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, "refold complete")
	assert.Contains(t, line, "/srv/music")
}

func TestCloseWithoutInit(t *testing.T) {
	assert.NoError(t, logging.Close())
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, logging.DefaultLogPath(), cfg.Path)
	assert.True(t, strings.HasSuffix(cfg.Path, filepath.Join("unfolder", "unfolder.log")))
}
