package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
)

func countLogs(t *testing.T, dir, prefix string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".log") {
			n++
		}
	}
	return n
}

func TestRotationBySize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "size.log"), logging.RotationConfig{MaxSize: 256})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := w.Write([]byte(strings.Repeat("x", 50) + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	assert.GreaterOrEqual(t, countLogs(t, dir, "size"), 2)

	info, err := os.Stat(filepath.Join(dir, "size.log"))
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(256))
}

func TestRotationAppendsToExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "append.log")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o644))

	w, err := logging.NewRotatingWriter(path, logging.DefaultRotationConfig())
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestRotationPrunesBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "prune.log")

	base := time.Date(2026, 1, 20, 15, 4, 5, 0, time.UTC)
	var names []string
	for i := 0; i < 4; i++ {
		name := filepath.Join(dir, "prune."+base.Add(time.Duration(i)*time.Hour).Format("2006-01-02-150405")+".log")
		require.NoError(t, os.WriteFile(name, []byte("old\n"), 0o644))
		names = append(names, name)
	}
	// Not a backup: no parsable timestamp.
	stray := filepath.Join(dir, "prune.notes.log")
	require.NoError(t, os.WriteFile(stray, nil, 0o644))

	w, err := logging.NewRotatingWriter(path, logging.RotationConfig{MaxSize: 1024, MaxBackups: 2})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.NoFileExists(t, names[0])
	assert.NoFileExists(t, names[1])
	assert.FileExists(t, names[2])
	assert.FileExists(t, names[3])
	assert.FileExists(t, stray)
}

func TestRotationPrunesByAge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	old := filepath.Join(dir, "age.2020-01-01-000000.log")
	require.NoError(t, os.WriteFile(old, nil, 0o644))
	stale := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	w, err := logging.NewRotatingWriter(filepath.Join(dir, "age.log"), logging.RotationConfig{MaxAge: 7})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.NoFileExists(t, old)
}

func TestRotatingWriterClosed(t *testing.T) {
	t.Parallel()

	w, err := logging.NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), logging.RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingWriterCreatesDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "deeper", "unfolder.log")
	w, err := logging.NewRotatingWriter(path, logging.RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.FileExists(t, path)
}
