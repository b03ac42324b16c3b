package trash

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("<RefoldingInfo/>"), 0o644))
	return path
}

func TestDiscard(t *testing.T) {
	path := writeTemp(t, ".refolding")

	method, err := Discard(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, []Method{MethodTrash, MethodDelete}, method)
	assert.NoFileExists(t, path)
}

func TestDiscard_DeleteOnly(t *testing.T) {
	path := writeTemp(t, ".refolding")

	method, err := DeleteOnly().Discard(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, MethodDelete, method)
	assert.NoFileExists(t, path)
}

func TestDiscard_FallsBackWhenHelperMissing(t *testing.T) {
	path := writeTemp(t, ".refolding")

	d := &Discarder{
		commands: platformCommands("linux"),
		lookPath: func(string) (string, error) { return "", errors.New("not installed") },
	}
	method, err := d.Discard(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, MethodDelete, method)
	assert.NoFileExists(t, path)
}

func TestDiscard_FallsBackWhenHelperFails(t *testing.T) {
	path := writeTemp(t, ".refolding")

	d := &Discarder{
		commands: []command{{name: "false", args: func(string) []string { return nil }}},
		lookPath: exec.LookPath,
	}
	method, err := d.Discard(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, MethodDelete, method)
	assert.NoFileExists(t, path)
}

func TestDiscard_Missing(t *testing.T) {
	_, err := Discard(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlatformCommands(t *testing.T) {
	assert.Len(t, platformCommands("linux"), 2)
	assert.Len(t, platformCommands("darwin"), 1)
	assert.Empty(t, platformCommands("plan9"))

	args := platformCommands("darwin")[0].args("/tmp/x")
	assert.Equal(t, []string{"-e", `tell application "Finder" to delete POSIX file "/tmp/x"`}, args)
}
