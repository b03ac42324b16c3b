package fold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/unfolder/pkg/unfolder/encoder"
	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
	"github.com/jamesainslie/unfolder/pkg/unfolder/walker"
)

// Unfold moves every file under root into root itself, removes the emptied
// directories, and writes the manifest needed to undo it.
//
// Files are encoded and moved one at a time in walk order: with shorter
// names enabled, each name depends on the files already placed.
//
// If a move fails part way, the files already moved are recorded in a
// manifest before the error is returned, so Refold can put them back.
// Directories are left in place in that case.
func Unfold(root string, opts Options) (*UnfoldResult, error) {
	start := time.Now()

	absRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	pending, err := manifest.Exists(absRoot)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: %s", ErrRefoldPending, manifest.Path(absRoot))
	}

	u, err := newUnfolder(absRoot, opts)
	if err != nil {
		return nil, err
	}

	nodes, err := walker.Collect(absRoot)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", absRoot, err)
	}

	// Nothing moves unless every path can be written to the manifest.
	if err := u.checkRepresentable(nodes); err != nil {
		return nil, err
	}

	logger.Info("unfold started", "root", absRoot, "strategy", opts.strategy(), "absolute", opts.UsesAbsolutePaths)

	for _, n := range nodes {
		if n.IsDir {
			continue
		}
		if err := u.unfoldFile(n); err != nil {
			return nil, u.abort(err)
		}
	}

	if err := manifest.Save(absRoot, u.manifest); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	// The tree is re-listed: only directories remain beneath the root.
	if err := walker.Walk(absRoot, walker.Visitor{Dir: u.removeDir}); err != nil {
		return nil, fmt.Errorf("removing directories: %w", err)
	}

	logger.Info("unfold finished", "root", absRoot, "files", u.manifest.Len(), "dirs_removed", u.dirsRemoved)

	return &UnfoldResult{
		Root:              absRoot,
		ManifestPath:      manifest.Path(absRoot),
		UsesAbsolutePaths: opts.UsesAbsolutePaths,
		Entries:           u.manifest.Entries,
		Bytes:             u.bytes,
		DirsRemoved:       u.dirsRemoved,
		Elapsed:           time.Since(start),
	}, nil
}

// unfolder carries the state of one unfold pass.
type unfolder struct {
	root     string
	opts     Options
	enc      *encoder.Encoder
	manifest *manifest.Manifest

	// placed maps flat names taken during this pass to the relative path
	// of the file that took them.
	placed map[string]string

	bytes       int64
	dirsRemoved int
}

func newUnfolder(root string, opts Options) (*unfolder, error) {
	u := &unfolder{
		root:     root,
		opts:     opts,
		manifest: manifest.New(opts.UsesAbsolutePaths),
		placed:   make(map[string]string),
	}

	enc, err := encoder.New(encoder.Options{
		Strategy:  opts.strategy(),
		Separator: opts.Separator,
		Exists:    u.taken,
	})
	if err != nil {
		return nil, err
	}
	u.enc = enc
	return u, nil
}

// taken reports whether name is occupied in the root, either by a file
// moved during this pass or by anything already on disk.
func (u *unfolder) taken(name string) bool {
	if manifest.IsReserved(name) {
		return true
	}
	if _, ok := u.placed[name]; ok {
		return true
	}
	_, err := os.Lstat(filepath.Join(u.root, name))
	return err == nil
}

func (u *unfolder) unfoldFile(n walker.Node) error {
	name, err := u.enc.Encode(n.Segments)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", n.Rel, err)
	}
	dest := filepath.Join(u.root, name)

	if manifest.IsReserved(name) {
		return &CollisionError{Source: n.Rel, Destination: dest}
	}

	// Two files of this pass flattened to the same name.
	if prev, ok := u.placed[name]; ok {
		return &CollisionError{Source: n.Rel, Destination: dest, Previous: prev}
	}

	if err := moveFile(n.Path, dest); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &CollisionError{Source: n.Rel, Destination: dest}
		}
		return fmt.Errorf("moving %s: %w", n.Rel, err)
	}
	u.placed[name] = n.Rel
	u.bytes += n.Size

	oldPath, newPath := n.Rel, name
	if u.opts.UsesAbsolutePaths {
		oldPath, newPath = n.Path, dest
	}
	u.manifest.Add(oldPath, newPath)

	u.opts.emit(Event{Kind: EventFileMoved, From: n.Path, To: dest})
	logger.Debug("file moved", "from", n.Rel, "to", name)
	return nil
}

// checkRepresentable fails if any file path or the separator, and so any
// flat name built from them, cannot be recorded in the manifest.
func (u *unfolder) checkRepresentable(nodes []walker.Node) error {
	relative := !u.opts.UsesAbsolutePaths
	if err := manifest.CheckPath(u.enc.Separator(), relative); err != nil {
		return fmt.Errorf("separator: %w", err)
	}
	for _, n := range nodes {
		if n.IsDir {
			continue
		}
		p := n.Rel
		if !relative {
			p = n.Path
		}
		if err := manifest.CheckPath(p, relative); err != nil {
			return err
		}
	}
	return nil
}

func (u *unfolder) removeDir(n walker.Node) error {
	if err := os.Remove(n.Path); err != nil {
		return fmt.Errorf("removing %s: %w", n.Rel, err)
	}
	u.dirsRemoved++
	u.opts.emit(Event{Kind: EventDirRemoved, Path: n.Path})
	return nil
}

// abort records the moves made so far and returns cause. A failure to
// write the partial manifest is joined to cause.
func (u *unfolder) abort(cause error) error {
	if u.manifest.Len() == 0 {
		return cause
	}

	logger.Warn("unfold aborted, saving partial manifest", "root", u.root, "moved", u.manifest.Len(), "error", cause)
	if err := manifest.Save(u.root, u.manifest); err != nil {
		return errors.Join(cause, fmt.Errorf("writing partial manifest: %w", err))
	}
	return cause
}

// resolveRoot returns the absolute, cleaned root and checks it is a
// directory.
func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, abs)
		}
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, abs)
	}
	return abs, nil
}
