// Package watch waits for flattened files to come back into an unfolded
// root so an incomplete refold can be retried.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
)

// DefaultSettle is how long the root must stay quiet after an arrival
// before Wait returns.
const DefaultSettle = 500 * time.Millisecond

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("watcher closed")

var logger = logging.Get("watch")

// Watcher reports files created in a single directory. Only the root is
// watched: flattened files live there and nowhere else.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	settle  time.Duration

	mu     sync.Mutex
	closed bool
}

// New starts watching root.
func New(root string) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(absRoot); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", absRoot, err)
	}

	return &Watcher{root: absRoot, watcher: fsw, settle: DefaultSettle}, nil
}

// SetSettle changes the quiet period. Zero returns on the first arrival.
func (w *Watcher) SetSettle(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settle = d
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Wait blocks until at least one file has arrived in the root and no
// further arrival has been seen for the settle period. It returns the
// last file seen. Directories and the manifest files are ignored.
func (w *Watcher) Wait(ctx context.Context) (string, error) {
	w.mu.Lock()
	settle := w.settle
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	var (
		last  string
		timer *time.Timer
		fired <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case <-fired:
			return last, nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return "", ErrClosed
			}
			if !w.arrival(event) {
				continue
			}
			last = event.Name
			logger.Debug("file arrived", "path", event.Name, "op", event.Op.String())

			if settle <= 0 {
				return last, nil
			}
			if timer == nil {
				timer = time.NewTimer(settle)
				fired = timer.C
			} else {
				timer.Reset(settle)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return "", ErrClosed
			}
			logger.Error("watcher error", "root", w.root, "error", err)
		}
	}
}

// arrival reports whether event is a regular file showing up in the root.
func (w *Watcher) arrival(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	if manifest.IsReserved(filepath.Base(event.Name)) {
		return false
	}
	info, err := os.Lstat(event.Name)
	if err != nil {
		return false // gone again
	}
	return !info.IsDir()
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}

// Pass is one attempt at the watched work. It reports whether anything is
// left to wait for.
type Pass func(ctx context.Context) (done bool, err error)

// Run calls pass, then again after every settled arrival, until pass
// reports done, fails, or ctx ends.
func (w *Watcher) Run(ctx context.Context, pass Pass) error {
	for {
		done, err := pass(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		name, err := w.Wait(ctx)
		if err != nil {
			return err
		}
		logger.Info("retrying after arrival", "root", w.root, "file", filepath.Base(name))
	}
}
