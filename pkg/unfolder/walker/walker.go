// Package walker enumerates a directory tree and replays it in a fixed
// post-order: the files of a directory first, then each subdirectory's
// subtree followed by the subdirectory itself.
//
// Listing is done with fastwalk, which reads directories in parallel and
// delivers entries in no particular order. The listing is then sorted so
// that every traversal of the same tree visits nodes in the same order.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// ErrNotDirectory is returned when the walk root is not a directory.
var ErrNotDirectory = errors.New("walk root is not a directory")

// Node is a single file or directory beneath the walk root.
type Node struct {
	// Path is the absolute path of the node.
	Path string

	// Rel is the path relative to the root, using forward slashes.
	Rel string

	// Segments are the components of Rel, outermost directory first.
	Segments []string

	// IsDir reports whether the node is a directory. Symlinks are never
	// directories, even when they point at one.
	IsDir bool

	// Size is the file size in bytes (0 for directories).
	Size int64
}

// Name returns the base name of the node.
func (n Node) Name() string {
	return n.Segments[len(n.Segments)-1]
}

// Depth returns the number of directories between the root and the node.
func (n Node) Depth() int {
	return len(n.Segments) - 1
}

// Visitor holds the callbacks invoked during a walk. Either may be nil.
// Returning an error from a callback stops the walk and the error is
// returned from Walk unchanged.
type Visitor struct {
	File func(Node) error
	Dir  func(Node) error
}

// Walk lists the tree under root and invokes v for every node in
// post-order. The root itself is never passed to v.Dir.
//
// The tree is listed completely before the first callback runs, so
// callbacks may rename or remove nodes without disturbing the order.
func Walk(root string, v Visitor) error {
	nodes, err := Collect(root)
	if err != nil {
		return err
	}

	for _, n := range nodes {
		switch {
		case n.IsDir && v.Dir != nil:
			if err := v.Dir(n); err != nil {
				return err
			}
		case !n.IsDir && v.File != nil:
			if err := v.File(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Collect returns every node beneath root in the order Walk visits them.
func Collect(root string) ([]Node, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, absRoot)
	}

	l := &listing{
		root:     absRoot,
		children: make(map[string][]Node),
	}

	conf := fastwalk.Config{
		Follow: false,
	}
	if err := fastwalk.Walk(&conf, absRoot, l.add); err != nil {
		return nil, fmt.Errorf("listing %s: %w", absRoot, err)
	}

	nodes := make([]Node, 0, l.count)
	l.appendPostOrder(&nodes, "")
	return nodes, nil
}

// listing accumulates fastwalk callbacks, which arrive concurrently.
type listing struct {
	root string

	mu       sync.Mutex
	children map[string][]Node // parent Rel -> direct children
	count    int
}

func (l *listing) add(path string, d fs.DirEntry, walkErr error) error {
	if walkErr != nil {
		return walkErr
	}
	if path == l.root {
		return nil
	}

	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	n := Node{
		Path:     path,
		Rel:      rel,
		Segments: strings.Split(rel, "/"),
		IsDir:    d.IsDir(),
	}
	if !n.IsDir {
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		n.Size = info.Size()
	}

	parent := ""
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		parent = rel[:i]
	}

	l.mu.Lock()
	l.children[parent] = append(l.children[parent], n)
	l.count++
	l.mu.Unlock()
	return nil
}

// appendPostOrder emits files of dir sorted by name, then every
// subdirectory's subtree followed by the subdirectory.
func (l *listing) appendPostOrder(out *[]Node, dir string) {
	kids := l.children[dir]
	sort.Slice(kids, func(i, j int) bool {
		return kids[i].Name() < kids[j].Name()
	})

	for _, n := range kids {
		if !n.IsDir {
			*out = append(*out, n)
		}
	}
	for _, n := range kids {
		if n.IsDir {
			l.appendPostOrder(out, n.Rel)
			*out = append(*out, n)
		}
	}
}
