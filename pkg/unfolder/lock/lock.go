// Package lock keeps two unfolder processes from working on the same root
// at once.
//
// Lock files live outside the root, in a shared directory, named after a
// hash of the root's absolute path: anything placed inside the root would
// be swept up by the unfold itself.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the root.
var ErrLocked = errors.New("root is locked by another unfolder process")

// Lock is an exclusive hold on one root.
type Lock struct {
	root  string
	flock *flock.Flock
}

// PathFor returns the lock file used for root in dir.
func PathFor(dir, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", root, err)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(dir, hex.EncodeToString(sum[:8])+".lock"), nil
}

// Acquire takes the lock for root without waiting. It returns ErrLocked
// if another process, or another Lock in this one, already holds it.
func Acquire(dir, root string) (*Lock, error) {
	path, err := PathFor(dir, root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", root, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, root)
	}

	abs, _ := filepath.Abs(root)
	return &Lock{root: abs, flock: fl}, nil
}

// Root returns the absolute root the lock protects.
func (l *Lock) Root() string {
	return l.root
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.flock.Path()
}

// Release gives the lock up. The lock file is kept so that a waiting
// process never locks an unlinked inode. Releasing twice is harmless.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.root, err)
	}
	return nil
}
