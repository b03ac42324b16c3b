package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// backupLayout is the timestamp embedded in rotated file names, as in
// unfolder.2026-01-20-150405.log.
const backupLayout = "2006-01-02-150405"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// MaxSize is the size in bytes that triggers rotation. Zero uses 5MB.
	MaxSize int64

	// MaxAge is the number of days rotated files are kept. Zero keeps them.
	MaxAge int

	// MaxBackups caps the number of rotated files. Zero keeps them all.
	MaxBackups int
}

// DefaultRotationConfig returns the rotation defaults.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    5 * 1024 * 1024,
		MaxAge:     14,
		MaxBackups: 3,
	}
}

// RotatingWriter is an io.WriteCloser that appends to a log file and
// rotates it by size. Writes from several unfolder processes are
// serialized through a sibling lock file.
type RotatingWriter struct {
	path string
	cfg  RotationConfig

	mu    sync.Mutex
	file  *os.File
	size  int64
	flock *flock.Flock
}

// NewRotatingWriter opens path for appending, creating parent directories
// as needed.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultRotationConfig().MaxSize
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{
		path:  path,
		cfg:   cfg,
		flock: flock.New(path + ".lock"),
	}
	if err := w.open(); err != nil {
		return nil, err
	}

	w.prune(time.Now())
	return w, nil
}

// Write appends p, rotating first if p would push the file past MaxSize.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	if err := w.flock.Lock(); err != nil {
		return 0, fmt.Errorf("locking log file: %w", err)
	}
	defer func() { _ = w.flock.Unlock() }()

	// Another process may have rotated underneath us.
	if err := w.reopenIfMoved(); err != nil {
		return 0, err
	}

	if w.size > 0 && w.size+int64(len(p)) > w.cfg.MaxSize {
		if err := w.rotate(time.Now()); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing log file: %w", err)
	}
	return n, nil
}

// Close syncs and closes the log file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil
	_ = w.flock.Close()

	if syncErr != nil {
		return fmt.Errorf("syncing log file: %w", syncErr)
	}
	return closeErr
}

func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.file = file
	w.size = info.Size()
	return nil
}

func (w *RotatingWriter) reopenIfMoved() error {
	onDisk, err := os.Stat(w.path)
	if err == nil {
		current, statErr := w.file.Stat()
		if statErr == nil && os.SameFile(onDisk, current) {
			w.size = current.Size()
			return nil
		}
	}

	_ = w.file.Close()
	w.file = nil
	return w.open()
}

func (w *RotatingWriter) rotate(now time.Time) error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	w.file = nil

	if err := os.Rename(w.path, w.backupName(now)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("renaming log file: %w", err)
	}

	if err := w.open(); err != nil {
		return err
	}
	w.prune(now)
	return nil
}

func (w *RotatingWriter) backupName(t time.Time) string {
	ext := filepath.Ext(w.path)
	return fmt.Sprintf("%s.%s%s", strings.TrimSuffix(w.path, ext), t.Format(backupLayout), ext)
}

// backups lists rotated files, newest first. The order comes from the
// timestamp in the name.
func (w *RotatingWriter) backups() []string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == base || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		if _, err := time.Parse(backupLayout, stamp); err != nil {
			continue
		}
		names = append(names, name)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

// prune removes rotated files beyond MaxBackups or older than MaxAge.
func (w *RotatingWriter) prune(now time.Time) {
	maxAge := time.Duration(w.cfg.MaxAge) * 24 * time.Hour

	for i, path := range w.backups() {
		drop := w.cfg.MaxBackups > 0 && i >= w.cfg.MaxBackups
		if !drop && w.cfg.MaxAge > 0 {
			if info, err := os.Stat(path); err == nil && now.Sub(info.ModTime()) > maxAge {
				drop = true
			}
		}
		if drop {
			_ = os.Remove(path)
		}
	}
}
