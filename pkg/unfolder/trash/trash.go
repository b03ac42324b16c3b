// Package trash disposes of abandoned manifests. The desktop trash is
// preferred so an abandon can be undone by hand; without one the file is
// deleted.
package trash

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// Method records how a file was disposed of.
type Method string

const (
	// MethodTrash means the file went to the desktop trash.
	MethodTrash Method = "trash"
	// MethodDelete means the file was removed permanently.
	MethodDelete Method = "deleted"
)

// commandTimeout bounds each trash helper invocation.
const commandTimeout = 30 * time.Second

// command is one way of asking the desktop to trash a file.
type command struct {
	name string
	args func(path string) []string
}

// Discarder moves files to the trash, falling back to deletion.
type Discarder struct {
	commands []command
	lookPath func(string) (string, error)
}

// New returns a Discarder using the trash helpers for this platform.
func New() *Discarder {
	return &Discarder{commands: platformCommands(runtime.GOOS), lookPath: exec.LookPath}
}

// DeleteOnly returns a Discarder that never uses the trash.
func DeleteOnly() *Discarder {
	return &Discarder{lookPath: exec.LookPath}
}

func platformCommands(goos string) []command {
	switch goos {
	case "darwin":
		return []command{{
			name: "osascript",
			args: func(path string) []string {
				return []string{"-e", fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)}
			},
		}}
	case "linux":
		return []command{
			{name: "gio", args: func(path string) []string { return []string{"trash", path} }},
			{name: "trash-put", args: func(path string) []string { return []string{path} }},
		}
	default:
		return nil
	}
}

// Discard removes the file at path and reports how.
func (d *Discarder) Discard(ctx context.Context, path string) (Method, error) {
	if _, err := os.Lstat(path); err != nil {
		return "", fmt.Errorf("cannot discard %q: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	for _, c := range d.commands {
		bin, err := d.lookPath(c.name)
		if err != nil {
			continue
		}

		cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		runErr := exec.CommandContext(cmdCtx, bin, c.args(absPath)...).Run()
		cancel()

		if runErr == nil {
			if _, statErr := os.Lstat(absPath); os.IsNotExist(statErr) {
				return MethodTrash, nil
			}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	if err := os.Remove(absPath); err != nil {
		return "", fmt.Errorf("failed to delete %q: %w", absPath, err)
	}
	return MethodDelete, nil
}

// Discard uses the platform Discarder.
func Discard(ctx context.Context, path string) (Method, error) {
	return New().Discard(ctx, path)
}
