package fold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// moveFile renames from to to without ever replacing an existing file.
// It returns an error satisfying errors.Is(err, fs.ErrExist) when to is
// occupied. Moving a path onto itself is a no-op.
func moveFile(from, to string) error {
	if from == to {
		return nil
	}
	return renameNoReplace(from, to)
}

// renameChecked is the portable fallback: check, then rename. There is a
// window between the two calls, acceptable with one process per root.
func renameChecked(from, to string) error {
	if _, err := os.Lstat(to); err == nil {
		return &os.LinkError{Op: "rename", Old: from, New: to, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking destination: %w", err)
	}
	return os.Rename(from, to)
}

// ensureParents creates every missing ancestor of path, outermost first,
// and returns the directories it created.
func ensureParents(path string) ([]string, error) {
	var missing []string
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return nil, fmt.Errorf("%s exists and is not a directory", dir)
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", dir, err)
		}
		missing = append(missing, dir)
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	created := make([]string, 0, len(missing))
	for i := len(missing) - 1; i >= 0; i-- {
		if err := os.Mkdir(missing[i], 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return created, fmt.Errorf("creating directory %s: %w", missing[i], err)
		}
		created = append(created, missing[i])
	}
	return created, nil
}

// isRegularFile reports whether path exists and is not a directory.
func isRegularFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
