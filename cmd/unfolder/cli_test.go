package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/unfolder/pkg/unfolder/config"
	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/lock"
	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
)

// setupCLI points every XDG directory into a temp home.
func setupCLI(t *testing.T) string {
	t.Helper()
	t.Cleanup(xdg.Reload) // runs after the environment is restored

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	xdg.Reload()

	t.Cleanup(func() {
		_ = logging.Close()
		viper.Reset()
		cfg = nil
	})
	return home
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// resetState clears the package variables the flags bind to, so a value
// set by one run never reaches the next.
func resetState() {
	cfgFile = ""
	cfg = nil
	configLoadErr = nil
	refoldWatch = false
	abandonDelete = false
	historyLimit = config.DefaultHistoryLimit
	historyMatch = ""
	historyOp = ""
}

// execute runs the CLI and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)
	resetState()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func createTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(f), 0o644))
	}
	return root
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func TestUnfoldRefold_RoundTrip(t *testing.T) {
	setupCLI(t)
	root := createTree(t, "a/b/x.txt", "a/y.txt", "z.txt")

	_, _, err := execute(t, "unfold", root, "-o", "plain")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "a-b-x.txt"))
	assert.FileExists(t, filepath.Join(root, "a-y.txt"))
	assert.FileExists(t, filepath.Join(root, manifest.FileName))
	assert.NoDirExists(t, filepath.Join(root, "a"))

	_, _, err = execute(t, "refold", root, "-o", "plain")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "a", "b", "x.txt"))
	assert.FileExists(t, filepath.Join(root, "a", "y.txt"))
	assert.FileExists(t, filepath.Join(root, "z.txt"))
	assert.NoFileExists(t, filepath.Join(root, manifest.FileName))

	stdout, _, err := execute(t, "history", "-o", "json")
	require.NoError(t, err)
	history, ok := decodeJSON(t, stdout)["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, "refold", history[0].(map[string]any)["operation"])
	assert.Equal(t, "unfold", history[1].(map[string]any)["operation"])
	assert.Equal(t, true, history[0].(map[string]any)["complete"])
}

func TestUnfold_Flags(t *testing.T) {
	setupCLI(t)
	root := createTree(t, "a/b/x.txt")

	_, _, err := execute(t, "unfold", "-s", "-a", root, "-o", "json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "x.txt"))

	m, err := manifest.Load(root)
	require.NoError(t, err)
	assert.True(t, m.UsesAbsolutePaths)
}

func TestUnfold_SeparatorFromEnvironment(t *testing.T) {
	setupCLI(t)
	t.Setenv("UNFOLDER_SEPARATOR", "__")
	root := createTree(t, "a/b/x.txt")

	_, _, err := execute(t, "unfold", root, "-o", "plain")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "a__b__x.txt"))
}

func TestUnfold_SeparatorFromConfigFile(t *testing.T) {
	home := setupCLI(t)
	file := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("separator: \"+\"\nshorter_names: false\n"), 0o644))
	root := createTree(t, "a/x.txt")

	_, _, err := execute(t, "--config", file, "unfold", root, "-o", "plain")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "a+x.txt"))
}

func TestUnfold_RefoldPending(t *testing.T) {
	setupCLI(t)
	root := createTree(t, "a/x.txt")

	_, _, err := execute(t, "unfold", root, "-o", "plain")
	require.NoError(t, err)

	_, _, err = execute(t, "unfold", root, "-o", "plain")
	assert.ErrorIs(t, err, fold.ErrRefoldPending)
}

func TestUnfold_MissingDirectory(t *testing.T) {
	setupCLI(t)
	_, _, err := execute(t, "unfold", filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, fold.ErrDirectoryNotFound)
}

func TestUnfold_Locked(t *testing.T) {
	setupCLI(t)
	root := createTree(t, "a/x.txt")

	held, err := lock.Acquire(config.DefaultLockDir(), root)
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	_, _, err = execute(t, "unfold", root)
	assert.ErrorIs(t, err, lock.ErrLocked)
	assert.FileExists(t, filepath.Join(root, "a", "x.txt"))
}

func TestUnfold_InvalidVerbosity(t *testing.T) {
	setupCLI(t)
	root := createTree(t, "a/x.txt")

	_, _, err := execute(t, "unfold", root, "-v", "5")
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.FileExists(t, filepath.Join(root, "a", "x.txt"))
}

func TestUnfold_Verbosity(t *testing.T) {
	setupCLI(t)
	root := createTree(t, "a/b/x.txt")

	_, stderr, err := execute(t, "unfold", root, "-v2", "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, stderr, "a/b/x.txt -> a-b-x.txt")
	assert.Contains(t, stderr, "- a/b/")
}

func TestRefold_Incomplete(t *testing.T) {
	setupCLI(t)
	root := createTree(t, "a/b/x.txt", "a/y.txt")

	_, _, err := execute(t, "unfold", root, "-o", "plain")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "a-b-x.txt")))

	stdout, stderr, err := execute(t, "refold", root, "-o", "json", "-v", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "a-b-x.txt not restored")

	report := decodeJSON(t, stdout)
	assert.Equal(t, true, report["manifest_kept"])
	pending, ok := report["pending"].([]any)
	require.True(t, ok)
	require.Len(t, pending, 1)
	assert.Equal(t, "a/b/x.txt", pending[0].(map[string]any)["original"])
	assert.FileExists(t, filepath.Join(root, "a", "y.txt"))

	stdout, _, err = execute(t, "status", root, "-o", "json")
	require.NoError(t, err)
	status := decodeJSON(t, stdout)
	assert.EqualValues(t, 1, status["total"])

	require.NoError(t, os.WriteFile(filepath.Join(root, "a-b-x.txt"), []byte("back"), 0o644))
	_, _, err = execute(t, "refold", root, "-o", "plain")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "a", "b", "x.txt"))
	assert.NoFileExists(t, filepath.Join(root, manifest.FileName))
}

func TestRefold_NoManifest(t *testing.T) {
	setupCLI(t)
	_, _, err := execute(t, "refold", t.TempDir())
	assert.ErrorIs(t, err, manifest.ErrNotFound)
}

func TestStatus_NoManifest(t *testing.T) {
	setupCLI(t)
	_, _, err := execute(t, "status", t.TempDir())
	assert.ErrorIs(t, err, manifest.ErrNotFound)
}

func TestAbandon(t *testing.T) {
	setupCLI(t)
	root := createTree(t, "a/x.txt", "b/y.txt")

	_, _, err := execute(t, "unfold", root, "-o", "plain")
	require.NoError(t, err)

	stdout, _, err := execute(t, "abandon", "--delete", root, "-o", "json")
	require.NoError(t, err)
	report := decodeJSON(t, stdout)
	assert.Equal(t, "deleted", report["discarded"])
	assert.EqualValues(t, 2, report["total"])
	assert.NoFileExists(t, filepath.Join(root, manifest.FileName))
	assert.FileExists(t, filepath.Join(root, "a-x.txt"))

	_, _, err = execute(t, "abandon", "--delete", root)
	assert.ErrorIs(t, err, manifest.ErrNotFound)
}

func TestAbandon_Malformed(t *testing.T) {
	setupCLI(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, manifest.FileName), []byte("<RefoldingInfo"), 0o644))

	_, _, err := execute(t, "abandon", "--delete", root, "-o", "plain")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, manifest.FileName))
}

func TestHistory_Filters(t *testing.T) {
	setupCLI(t)
	first := createTree(t, "a/x.txt")
	second := createTree(t, "b/y.txt")

	for _, root := range []string{first, second} {
		_, _, err := execute(t, "unfold", root, "-o", "plain")
		require.NoError(t, err)
	}
	_, _, err := execute(t, "refold", first, "-o", "plain")
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "-o", "json", "--match", first)
	require.NoError(t, err)
	assert.Len(t, decodeJSON(t, stdout)["history"], 2)

	stdout, _, err = execute(t, "history", "-o", "json", "--operation", "unfold")
	require.NoError(t, err)
	assert.Len(t, decodeJSON(t, stdout)["history"], 2)

	// Filters from earlier runs do not carry over.
	stdout, _, err = execute(t, "history", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeJSON(t, stdout)["history"], 3)

	stdout, _, err = execute(t, "history", "-o", "json", "-l", "1")
	require.NoError(t, err)
	rows := decodeJSON(t, stdout)["history"].([]any)
	require.Len(t, rows, 1)

	id := rows[0].(map[string]any)["id"].(string)
	stdout, _, err = execute(t, "history", "show", id, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, id)

	_, _, err = execute(t, "history", "--operation", "delete")
	assert.Error(t, err)

	stdout, _, err = execute(t, "history", "clean")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed 0 run(s)")
}

func TestHistory_JournalDisabled(t *testing.T) {
	setupCLI(t)
	t.Setenv("UNFOLDER_JOURNAL_ENABLED", "false")
	root := createTree(t, "a/x.txt")

	_, _, err := execute(t, "unfold", root, "-o", "plain")
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "-o", "json")
	require.NoError(t, err)
	assert.Nil(t, decodeJSON(t, stdout)["history"])
}

func TestConfigCommands(t *testing.T) {
	home := setupCLI(t)

	stdout, _, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "unfolder", "config.yaml"), strings.TrimSpace(stdout))

	stdout, _, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created default config file")
	assert.FileExists(t, filepath.Join(home, ".config", "unfolder", "config.yaml"))

	stdout, _, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")

	t.Setenv("UNFOLDER_SHORTER_NAMES", "true")
	stdout, _, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "shorter_names:           true")
	assert.Contains(t, stdout, "UNFOLDER_SHORTER_NAMES=true")
}

func TestConfigShow_InvalidFile(t *testing.T) {
	home := setupCLI(t)
	file := filepath.Join(home, "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("verbosity: 9\n"), 0o644))

	_, _, err := execute(t, "--config", file, "config", "show")
	assert.ErrorIs(t, err, config.ErrInvalid)

	stdout, _, err := execute(t, "--config", file, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, file, strings.TrimSpace(stdout))
}

func TestVersion(t *testing.T) {
	setupCLI(t)
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unfolder dev")
}
