// Package fold flattens a directory tree into its root (unfold) and puts
// it back together from the manifest left behind (refold).
//
// Both operations run synchronously in a single goroutine. Every
// filesystem change is reported to an Observer so callers can log or
// display progress without the engine doing any formatting.
package fold

import (
	"github.com/jamesainslie/unfolder/pkg/unfolder/encoder"
	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
)

// logger is the package-level logger for fold operations.
var logger = logging.Get("fold")

// EventKind identifies a filesystem change made by the engine.
type EventKind string

const (
	// EventFileMoved is emitted after a file is renamed.
	EventFileMoved EventKind = "file-moved"
	// EventDirCreated is emitted after a missing ancestor is recreated.
	EventDirCreated EventKind = "dir-created"
	// EventDirRemoved is emitted after an emptied directory is removed.
	EventDirRemoved EventKind = "dir-removed"
	// EventFileMissing is emitted when a flattened file cannot be found
	// or its original location is occupied.
	EventFileMissing EventKind = "file-missing"
)

// Event describes one change. Path is set for directory and missing-file
// events; From and To are set for moves.
type Event struct {
	Kind EventKind
	From string
	To   string
	Path string
}

// Observer receives events as they happen.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// Options configures Unfold and Refold.
type Options struct {
	// UsesAbsolutePaths records absolute paths in the manifest. It only
	// affects Unfold; Refold follows whatever the manifest says.
	UsesAbsolutePaths bool

	// UseShorterNames selects shortest-unique encoding instead of full
	// encoding.
	UseShorterNames bool

	// Separator joins path segments in flat names. Empty means "-".
	Separator string

	// Observer is notified of every change. May be nil.
	Observer Observer
}

func (o Options) strategy() encoder.Strategy {
	if o.UseShorterNames {
		return encoder.StrategyShortest
	}
	return encoder.StrategyFull
}

func (o Options) emit(e Event) {
	if o.Observer != nil {
		o.Observer.OnEvent(e)
	}
}
