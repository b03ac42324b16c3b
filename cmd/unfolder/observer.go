package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
)

// progress prints engine events according to the verbosity level and
// logs every one of them:
//
//	0  nothing per file
//	1  directories created or removed, files that could not be restored
//	2  also every move
type progress struct {
	w         io.Writer
	root      string
	verbosity int
	log       *logging.Logger
	moves     int
}

func newProgress(w io.Writer, root string, verbosity int) *progress {
	return &progress{w: w, root: root, verbosity: verbosity, log: cliLog().With("root", root)}
}

// OnEvent implements fold.Observer.
func (p *progress) OnEvent(e fold.Event) {
	switch e.Kind {
	case fold.EventFileMoved:
		p.moves++
		p.log.Debug("moved", "from", e.From, "to", e.To)
		if p.verbosity >= 2 {
			fmt.Fprintf(p.w, "  %s -> %s\n", p.rel(e.From), p.rel(e.To))
		}
	case fold.EventDirCreated:
		p.log.Debug("directory created", "path", e.Path)
		if p.verbosity >= 1 {
			fmt.Fprintf(p.w, "  + %s/\n", p.rel(e.Path))
		}
	case fold.EventDirRemoved:
		p.log.Debug("directory removed", "path", e.Path)
		if p.verbosity >= 1 {
			fmt.Fprintf(p.w, "  - %s/\n", p.rel(e.Path))
		}
	case fold.EventFileMissing:
		p.log.Warn("file not restored", "path", e.Path)
		if p.verbosity >= 1 {
			fmt.Fprintf(p.w, "  ! %s not restored\n", p.rel(e.Path))
		}
	}
}

// rel shortens paths under the root for display.
func (p *progress) rel(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	if r, err := filepath.Rel(p.root, path); err == nil && filepath.IsLocal(r) {
		return filepath.ToSlash(r)
	}
	return path
}

var _ fold.Observer = (*progress)(nil)
